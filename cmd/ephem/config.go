package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ChristopherRabotin/ephem"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/viper"
)

const dateTimeFormat = "2006-01-02 15:04:05"

// Run is one ephemeris run of a scenario.
type Run struct {
	Start, End time.Time
	Step       time.Duration
	Targets    []int
	Template   ephem.Request
}

func (r Run) String() string {
	names := make([]string, len(r.Targets))
	for i, t := range r.Targets {
		names[i] = ephem.BodyName(t)
	}
	return fmt.Sprintf("%s from %s: %s -> %s every %s (%s, equinox %s)", strings.Join(names, ","), ephem.BodyName(r.Template.Observer), r.Start.Format(dateTimeFormat), r.End.Format(dateTimeFormat), r.Step, r.Template.Output, r.Template.Equinox)
}

// Epochs returns the Julian dates of the run.
func (r Run) Epochs() []float64 {
	if r.End.Before(r.Start) || r.Step <= 0 {
		return []float64{julian.TimeToJD(r.Start)}
	}
	var jds []float64
	for dt := r.Start; !dt.After(r.End); dt = dt.Add(r.Step) {
		jds = append(jds, julian.TimeToJD(dt))
	}
	return jds
}

func confReadJDEorTime(key string) (dt time.Time) {
	jde := viper.GetFloat64(key)
	if jde == 0 {
		var perr error
		dt, perr = time.Parse(dateTimeFormat, viper.GetString(key))
		if perr != nil {
			log.Fatalf("could not understand `%s`: %s", key, perr)
		}
	} else {
		dt = julian.JDToTime(jde)
	}
	return
}

func readRun(conf ephem.Config) Run {
	r := Run{Start: confReadJDEorTime("ephemeris.start")}
	if viper.IsSet("ephemeris.end") {
		r.End = confReadJDEorTime("ephemeris.end")
	} else {
		r.End = r.Start
	}
	r.Step = viper.GetDuration("ephemeris.step")
	for _, name := range viper.GetStringSlice("ephemeris.targets") {
		id, err := ephem.BodyFromName(name)
		if err != nil {
			log.Fatalf("ephemeris.targets: %s", err)
		}
		r.Targets = append(r.Targets, id)
	}
	if len(r.Targets) == 0 {
		log.Fatal("ephemeris.targets is empty")
	}

	req := conf.Request(0, 0)
	req.UT = viper.GetBool("ephemeris.ut")
	if name := viper.GetString("ephemeris.observer"); name != "" {
		id, err := ephem.BodyFromName(name)
		if err != nil {
			log.Fatalf("ephemeris.observer: %s", err)
		}
		req.Observer = id
	}
	if viper.IsSet("ephemeris.output") {
		kind, err := ephem.OutputKindFromString(viper.GetString("ephemeris.output"))
		if err != nil {
			log.Fatalf("ephemeris.output: %s", err)
		}
		req.Output = kind
	}
	equinox, err := ephem.ParseEquinox(viper.GetString("ephemeris.equinox"))
	if err != nil {
		log.Fatalf("ephemeris.equinox: %s", err)
	}
	req.Equinox = equinox
	req.Cartesian = viper.GetBool("ephemeris.cartesian")
	req.Geometric = viper.GetBool("ephemeris.geometric")
	if viper.IsSet("ephemeris.aberration") {
		req.Aberration = viper.GetBool("ephemeris.aberration")
	}
	req.ErrorBars = viper.GetBool("ephemeris.errorbars")
	req.Refraction = viper.GetBool("ephemeris.refraction")
	if viper.IsSet("ephemeris.fk5") {
		req.FK5 = viper.GetBool("ephemeris.fk5")
	}
	if name := viper.GetString("site.station"); name != "" {
		site, err := ephem.BuiltinObserverFromName(name)
		if err != nil {
			log.Fatalf("site.station: %s", err)
		}
		req.Site = &site
	} else if viper.IsSet("site.latitude") {
		site := ephem.NewObserver(viper.GetString("site.name"), viper.GetFloat64("site.latitude"), viper.GetFloat64("site.longitude"), viper.GetFloat64("site.height"))
		req.Site = &site
	}
	r.Template = req
	return r
}

// readElements returns the ad hoc element set of the scenario, if any.
func readElements() (values []float64, perihelion, ok bool) {
	if !viper.IsSet("elements.values") {
		return nil, false, false
	}
	for _, v := range viper.GetStringSlice("elements.values") {
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err != nil {
			log.Fatalf("elements.values: %s", err)
		}
		values = append(values, f)
	}
	return values, viper.GetBool("elements.perihelion"), true
}
