package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"

	"github.com/Mrugank0405/E-waste-Report-Model/dataset"
	"github.com/Mrugank0405/E-waste-Report-Model/internal/options"
	"github.com/Mrugank0405/E-waste-Report-Model/report"
)

// Config holds everything the sub-commands need.
type Config struct {
	Listen       string
	Data         string
	Format       dataset.Format
	ChartWidth   float64 // inches
	ChartHeight  float64 // inches
	RollbarToken string
	LogLevel     logrus.Level
	City         string
	OutDir       string
}

// ConfigOption configures a Config.
type ConfigOption = options.Option[*Config]

// NewConfig returns the defaults with opts applied in order.
func NewConfig(opts ...ConfigOption) (*Config, error) {
	c := &Config{
		Listen:      ":8080",
		Data:        "data.json",
		Format:      dataset.FormatAuto,
		ChartWidth:  10,
		ChartHeight: 5,
		LogLevel:    logrus.InfoLevel,
		OutDir:      ".",
	}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// ChartOptions converts the configured size for the report package.
func (c *Config) ChartOptions() []report.ChartOption {
	return []report.ChartOption{
		report.WithChartSize(vg.Length(c.ChartWidth)*vg.Inch, vg.Length(c.ChartHeight)*vg.Inch),
	}
}

func Listen(addr string) ConfigOption {
	return options.New(func(c *Config) error {
		if addr == "" {
			return fmt.Errorf("listen address must not be empty")
		}
		c.Listen = addr
		return nil
	})
}

func Data(source string) ConfigOption {
	return options.New(func(c *Config) error {
		if source == "" {
			return fmt.Errorf("data source must not be empty")
		}
		c.Data = source
		return nil
	})
}

func Format(name string) ConfigOption {
	return options.New(func(c *Config) error {
		f, err := dataset.ParseFormat(name)
		if err != nil {
			return err
		}
		c.Format = f
		return nil
	})
}

func ChartWidth(inches string) ConfigOption {
	return options.New(func(c *Config) error {
		w, err := parseInches(inches)
		if err != nil {
			return fmt.Errorf("could not convert chart-width: %w", err)
		}
		c.ChartWidth = w
		return nil
	})
}

func ChartHeight(inches string) ConfigOption {
	return options.New(func(c *Config) error {
		h, err := parseInches(inches)
		if err != nil {
			return fmt.Errorf("could not convert chart-height: %w", err)
		}
		c.ChartHeight = h
		return nil
	})
}

func RollbarToken(token string) ConfigOption {
	return options.NoError(func(c *Config) {
		c.RollbarToken = token
	})
}

func LogLevel(level string) ConfigOption {
	return options.New(func(c *Config) error {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return err
		}
		c.LogLevel = lvl
		return nil
	})
}

func City(name string) ConfigOption {
	return options.NoError(func(c *Config) {
		c.City = name
	})
}

func OutDir(dir string) ConfigOption {
	return options.NoError(func(c *Config) {
		if dir == "" {
			dir = "."
		}
		c.OutDir = dir
	})
}

func parseInches(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("size must be positive, got %v", v)
	}

	return v, nil
}

// ParseCommandLine splits args into the sub-command and its configuration.
// Options from a -c file come first so that flags on the command line win.
func ParseCommandLine(args []string) (string, []ConfigOption, error) {
	pf := createFlagSet()
	rest, opts, err := parse(args, pf)
	if err != nil {
		return "", nil, err
	}

	switch len(rest) {
	case 0:
		return "serve", opts, nil
	case 1:
		return rest[0], opts, nil
	default:
		return "", nil, fmt.Errorf("expected one command, got %q", rest)
	}
}

type parsed struct {
	file  []ConfigOption
	flags []ConfigOption
}

func parse(args []string, pf *pflag.FlagSet) ([]string, []ConfigOption, error) {
	p := parsed{}
	if err := pf.ParseAll(args, parseFlag(&p)); err != nil {
		return pf.Args(), nil, err
	}

	return pf.Args(), append(p.file, p.flags...), nil
}

func createFlagSet() *pflag.FlagSet {
	pf := pflag.NewFlagSet("ewaste", pflag.ContinueOnError)
	pf.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of ewaste:\newaste [serve|report|cities] <options>\n")
		fmt.Fprintf(os.Stderr, "\n%s", pf.FlagUsagesWrapped(10))
	}

	pf.StringP("config", "c", "", "Use yaml configuration file")
	pf.StringP("listen", "l", ":8080", "Address the HTTP server listens on")
	pf.StringP("data", "d", "data.json", "Dataset file path or http(s) URL")
	pf.String("format", "auto", "Dataset format: auto, json, csv or xlsx")
	pf.String("chart-width", "10", "Chart width in inches")
	pf.String("chart-height", "5", "Chart height in inches")
	pf.String("rollbar-token", "", "Report dataset load failures to Rollbar with this token")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.String("city", "", "City to report on (report command)")
	pf.StringP("out", "o", ".", "Directory for report files (report command)")

	return pf
}

func parseFlag(p *parsed) func(*pflag.Flag, string) error {
	return func(flag *pflag.Flag, value string) error {
		if flag.Name == "config" {
			opts, err := parseFromFile(value)
			if err != nil {
				return err
			}
			p.file = append(p.file, opts...)
			return nil
		}

		opt, err := handleOption(flag.Name, value)
		if err != nil {
			return err
		}
		p.flags = append(p.flags, opt)
		return nil
	}
}

func handleOption(name string, value string) (ConfigOption, error) {
	switch name {
	case "listen":
		return Listen(value), nil
	case "data":
		return Data(value), nil
	case "format":
		return Format(value), nil
	case "chart-width":
		return ChartWidth(value), nil
	case "chart-height":
		return ChartHeight(value), nil
	case "rollbar-token":
		return RollbarToken(value), nil
	case "log-level":
		return LogLevel(value), nil
	case "city":
		return City(value), nil
	case "out":
		return OutDir(value), nil
	default:
		return nil, fmt.Errorf("unknown option: %s", name)
	}
}

type fileConfig struct {
	Listen       *string `yaml:"listen"`
	Data         *string `yaml:"data"`
	Format       *string `yaml:"format"`
	RollbarToken *string `yaml:"rollbar_token"`
	LogLevel     *string `yaml:"log_level"`
	Chart        struct {
		Width  *float64 `yaml:"width"`
		Height *float64 `yaml:"height"`
	} `yaml:"chart"`
}

func parseFromFile(fpath string) ([]ConfigOption, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config %s: %w", fpath, err)
	}

	var opts []ConfigOption
	add := func(name string, v *string) {
		if v != nil {
			opt, _ := handleOption(name, *v)
			opts = append(opts, opt)
		}
	}
	add("listen", fc.Listen)
	add("data", fc.Data)
	add("format", fc.Format)
	add("rollbar-token", fc.RollbarToken)
	add("log-level", fc.LogLevel)
	if fc.Chart.Width != nil {
		opts = append(opts, ChartWidth(strconv.FormatFloat(*fc.Chart.Width, 'f', -1, 64)))
	}
	if fc.Chart.Height != nil {
		opts = append(opts, ChartHeight(strconv.FormatFloat(*fc.Chart.Height, 'f', -1, 64)))
	}

	return opts, nil
}
