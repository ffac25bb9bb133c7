package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"

	"github.com/Mrugank0405/E-waste-Report-Model/internal/options"
)

// Format identifies the encoding of a dataset resource.
type Format int

const (
	// FormatAuto picks the format from the source extension.
	FormatAuto Format = iota
	// FormatJSON is [{"City": ..., "Data": {label: value}}].
	FormatJSON
	// FormatCSV is a City,<label>... header followed by one row per city.
	FormatCSV
	// FormatXLSX is the CSV layout on the first sheet of a workbook.
	FormatXLSX
)

var formatNames = map[Format]string{
	FormatAuto: "auto",
	FormatJSON: "json",
	FormatCSV:  "csv",
	FormatXLSX: "xlsx",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}

	return "unknown"
}

// ParseFormat maps a name such as "json" or "xlsx" to a Format.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	if name == "" {
		return FormatAuto, nil
	}
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}

	return FormatAuto, fmt.Errorf("dataset: unknown format %q", name)
}

type loadConfig struct {
	format Format
	client *http.Client
	log    logrus.FieldLogger
}

// LoadOption configures Load.
type LoadOption = options.Option[*loadConfig]

// WithFormat forces the decoder instead of guessing from the extension.
func WithFormat(f Format) LoadOption {
	return options.NoError(func(c *loadConfig) {
		c.format = f
	})
}

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(client *http.Client) LoadOption {
	return options.New(func(c *loadConfig) error {
		if client == nil {
			return errors.New("dataset: nil http client")
		}
		c.client = client

		return nil
	})
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) LoadOption {
	return options.NoError(func(c *loadConfig) {
		c.log = log
	})
}

// Load fetches source, a file path or an http(s) URL, and decodes it. Every
// failure is returned as *LoadError. There is no retry.
func Load(ctx context.Context, source string, opts ...LoadOption) (*Dataset, error) {
	cfg := &loadConfig{
		client: http.DefaultClient,
		log:    logrus.StandardLogger(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	log := cfg.log.WithField("source", source)

	raw, err := fetch(ctx, cfg.client, source)
	if err != nil {
		log.WithError(err).Error("dataset fetch failed")
		return nil, &LoadError{Source: source, Err: err}
	}

	format := cfg.format
	if format == FormatAuto {
		format, err = detectFormat(source)
		if err != nil {
			return nil, &LoadError{Source: source, Err: err}
		}
	}

	records, err := decode(format, raw)
	if err != nil {
		log.WithError(err).WithField("format", format).Error("dataset decode failed")
		return nil, &LoadError{Source: source, Err: err}
	}

	log.WithFields(logrus.Fields{
		"format":  format,
		"records": len(records),
	}).Info("dataset loaded")

	return &Dataset{
		source:      source,
		format:      format,
		records:     records,
		fingerprint: xxhash.Sum64(raw),
	}, nil
}

func decode(format Format, raw []byte) ([]Record, error) {
	switch format {
	case FormatJSON:
		return parseJSON(raw)
	case FormatCSV:
		return parseCSV(raw)
	case FormatXLSX:
		return parseXLSX(raw)
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func fetch(ctx context.Context, client *http.Client, source string) ([]byte, error) {
	if !isRemote(source) {
		return os.ReadFile(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func detectFormat(source string) (Format, error) {
	ext := filepath.Ext(source)
	if isRemote(source) {
		u, err := url.Parse(source)
		if err != nil {
			return FormatAuto, err
		}
		ext = path.Ext(u.Path)
	}

	f, err := ParseFormat(ext)
	if err != nil {
		return FormatAuto, err
	}
	if f == FormatAuto {
		return FormatAuto, fmt.Errorf("cannot detect format of %q, set one explicitly", source)
	}

	return f, nil
}
