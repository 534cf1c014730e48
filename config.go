package ephem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/spf13/viper"
)

// Default one sigma uncertainties of the planet evaluators, in radians and AU.
var (
	DefaultVSOP87Sigma           = 1 * arcsec2rad
	DefaultVSOP87DistSigma       = 1e-8
	DefaultMeanElementsSigma     = 30 * arcsec2rad
	DefaultMeanElementsDistSigma = 1e-5
	DefaultJPLSigma              = 0.01 * arcsec2rad
	DefaultJPLDistSigma          = 1e-10
)

// ConfigEnv is the environment variable holding the directory of conf.toml.
const ConfigEnv = "EPHEM_CONFIG"

// Config is the engine configuration, usually read from conf.toml.
type Config struct {
	VSOP87, JPL bool
	VSOP87Dir   string
	JPLFile     string
	CatalogFile string
	FK5         bool
	σAngle      float64 // rad
	σDist       float64 // AU
	Site        *Observer
	OutputDir   string
	LogLevel    string
}

// LoadConfig reads conf.toml from the provided directory, or from $EPHEM_CONFIG when dir is empty.
func LoadConfig(dir string) (Config, error) {
	if dir == "" {
		dir = os.Getenv(ConfigEnv)
	}
	if dir == "" {
		return Config{}, fmt.Errorf("environment variable `%s` is missing or empty", ConfigEnv)
	}
	v := viper.New()
	v.SetConfigName("conf")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%s/conf.toml: %w", dir, err)
	}
	return configFromViper(v)
}

// ConfigFromMap returns the configuration of the provided keys, as they would appear in conf.toml.
// A nil map returns the defaults.
func ConfigFromMap(values map[string]interface{}) (Config, error) {
	v := viper.New()
	for key, val := range values {
		v.Set(key, val)
	}
	return configFromViper(v)
}

func configFromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("log.level", "info")
	v.SetDefault("general.output_path", ".")
	c := Config{
		VSOP87:      v.GetBool("VSOP87.enabled"),
		VSOP87Dir:   v.GetString("VSOP87.directory"),
		JPL:         v.GetBool("JPL.enabled"),
		JPLFile:     v.GetString("JPL.file"),
		CatalogFile: v.GetString("catalog.file"),
		FK5:         v.GetBool("engine.fk5"),
		OutputDir:   v.GetString("general.output_path"),
		LogLevel:    v.GetString("log.level"),
	}
	if c.VSOP87 && c.JPL {
		return c, errors.New("both VSOP87 and JPL are enabled, please make up your mind (JPL is more precise)")
	}
	// engine.sigma.* are in arc seconds, engine.sigma.distance in AU.
	switch {
	case c.JPL:
		c.σAngle, c.σDist = DefaultJPLSigma, DefaultJPLDistSigma
		if v.IsSet("engine.sigma.jpl") {
			c.σAngle = v.GetFloat64("engine.sigma.jpl") * arcsec2rad
		}
	case c.VSOP87:
		c.σAngle, c.σDist = DefaultVSOP87Sigma, DefaultVSOP87DistSigma
		if v.IsSet("engine.sigma.vsop87") {
			c.σAngle = v.GetFloat64("engine.sigma.vsop87") * arcsec2rad
		}
	default:
		c.σAngle, c.σDist = DefaultMeanElementsSigma, DefaultMeanElementsDistSigma
		if v.IsSet("engine.sigma.mean") {
			c.σAngle = v.GetFloat64("engine.sigma.mean") * arcsec2rad
		}
	}
	if v.IsSet("engine.sigma.distance") {
		c.σDist = v.GetFloat64("engine.sigma.distance")
	}
	if name := v.GetString("observer.station"); name != "" {
		site, err := BuiltinObserverFromName(name)
		if err != nil {
			return c, err
		}
		c.Site = &site
	} else if v.IsSet("observer.latitude") {
		site := NewObserver(v.GetString("observer.name"), v.GetFloat64("observer.latitude"), v.GetFloat64("observer.longitude"), v.GetFloat64("observer.height"))
		c.Site = &site
	}
	return c, nil
}

// Evaluator returns the planet evaluator the configuration enables.
func (c Config) Evaluator(logger kitlog.Logger) (PlanetEvaluator, error) {
	switch {
	case c.JPL:
		return NewJPLEvaluator(c.JPLFile, c.σAngle, c.σDist)
	case c.VSOP87:
		return NewVSOP87Evaluator(c.VSOP87Dir, c.σAngle, c.σDist, logger), nil
	default:
		return NewMeanElementsEvaluator(c.σAngle, c.σDist), nil
	}
}

// Engine returns an engine set up from the configuration. Extra options are applied last.
func (c Config) Engine(logger kitlog.Logger, opts ...Option) (*Engine, error) {
	ev, err := c.Evaluator(logger)
	if err != nil {
		return nil, err
	}
	catalog := NewOrbitCatalog()
	if c.CatalogFile != "" {
		if catalog, err = ReadCatalogFile(c.CatalogFile); err != nil {
			return nil, err
		}
	}
	catalog.SetLogger(logger)
	level.Info(logger).Log("evaluator", ev.Name(), "catalog", len(catalog.IDs()), "msg", "engine ready")
	base := []Option{WithEvaluator(ev), WithCatalog(catalog), WithLogger(logger)}
	return NewEngine(append(base, opts...)...), nil
}

// Request returns a request of the target using the configured site and FK5 setting.
func (c Config) Request(epoch float64, target int) Request {
	req := NewRequest(epoch, target)
	req.FK5 = c.FK5
	req.Site = c.Site
	return req
}

// NewLogger returns a logfmt logger filtered at the provided level (debug, info, warn or error).
func NewLogger(w io.Writer, lvl string) kitlog.Logger {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
	var opt level.Option
	switch strings.ToLower(lvl) {
	case "debug":
		opt = level.AllowDebug()
	case "warn", "warning":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		opt = level.AllowInfo()
	}
	return level.NewFilter(logger, opt)
}
