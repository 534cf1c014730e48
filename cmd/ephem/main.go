package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/ChristopherRabotin/ephem"
	"github.com/go-kit/kit/log/level"
	"github.com/soniakeys/meeus/v3/julian"
	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"
	"github.com/spf13/viper"
)

const defaultScenario = "~~unset~~"

var (
	scenario string
	confDir  string
	numCPUs  int
	debug    bool
)

func init() {
	flag.StringVar(&scenario, "scenario", defaultScenario, "ephemeris scenario TOML file")
	flag.StringVar(&confDir, "config", "", "directory of conf.toml (defaults to $"+ephem.ConfigEnv+")")
	flag.IntVar(&numCPUs, "cpus", -1, "number of CPUs to use (set to 0 for max CPUs)")
	flag.BoolVar(&debug, "debug", false, "debug logging")
}

func main() {
	flag.Parse()
	if scenario == defaultScenario {
		log.Fatal("no scenario provided")
	}
	scenario = strings.Replace(scenario, ".toml", "", 1)
	availableCPUs := runtime.NumCPU()
	if numCPUs <= 0 || numCPUs > availableCPUs {
		numCPUs = availableCPUs
	}

	conf := ephem.Config{}
	if confDir != "" || os.Getenv(ephem.ConfigEnv) != "" {
		var err error
		if conf, err = ephem.LoadConfig(confDir); err != nil {
			log.Fatal(err)
		}
	} else {
		// No configuration: mean elements without catalog.
		var err error
		if conf, err = ephem.ConfigFromMap(nil); err != nil {
			log.Fatal(err)
		}
	}
	lvl := conf.LogLevel
	if debug {
		lvl = "debug"
	}
	logger := ephem.NewLogger(os.Stderr, lvl)

	// Load scenario
	viper.AddConfigPath(".")
	viper.SetConfigName(scenario)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("./%s.toml: Error %s", scenario, err)
	}
	prefix := viper.GetString("general.fileprefix")
	if prefix == "" {
		prefix = scenario
	}
	outputdir := viper.GetString("general.outputdir")
	if len(outputdir) == 0 {
		outputdir = conf.OutputDir
	}
	run := readRun(conf)
	level.Info(logger).Log("scenario", scenario, "run", run, "cpus", numCPUs)

	engine, err := conf.Engine(logger)
	if err != nil {
		log.Fatal(err)
	}
	if values, perihelion, ok := readElements(); ok {
		if err := engine.SetElements(values, perihelion); err != nil {
			log.Fatalf("elements.values: %s", err)
		}
	}

	// One worker per target, bounded by the CPUs.
	epochs := run.Epochs()
	results := make([][]ephem.Record, len(run.Targets))
	cpuChan := make(chan bool, numCPUs)
	var wg sync.WaitGroup
	for i, target := range run.Targets {
		wg.Add(1)
		cpuChan <- true
		go func(i, target int) {
			defer wg.Done()
			defer func() { <-cpuChan }()
			for _, jd := range epochs {
				req := run.Template
				req.Epoch, req.Target = jd, target
				res, err := engine.Compute(req)
				if err != nil {
					level.Error(logger).Log("target", ephem.BodyName(target), "jd", jd, "err", err)
					continue
				}
				results[i] = append(results[i], ephem.Record{Request: req, Result: res})
			}
		}(i, target)
	}
	wg.Wait()

	for _, recs := range results {
		for _, rec := range recs {
			printRecord(rec)
		}
	}

	export := ephem.ExportConfig{
		Filename:  prefix,
		OutputDir: outputdir,
		AsCSV:     viper.GetBool("general.csv"),
		AsJSON:    viper.GetBool("general.json"),
		Timestamp: viper.GetBool("general.timestamp"),
	}
	if export.IsUseless() {
		return
	}
	recChan := make(chan ephem.Record, 10)
	go func() {
		defer close(recChan)
		for _, recs := range results {
			for _, rec := range recs {
				recChan <- rec
			}
		}
	}()
	files, err := ephem.StreamRecords(export, recChan)
	if err != nil {
		log.Fatal(err)
	}
	for _, f := range files {
		level.Info(logger).Log("file", f, "msg", "saved")
	}
}

func printRecord(rec ephem.Record) {
	res := rec.Result
	dt := julian.JDToTime(res.UT).Format(dateTimeFormat)
	v := res.Vector.V
	name := ephem.BodyName(rec.Request.Target)
	switch {
	case rec.Request.Output == ephem.Elongation:
		fmt.Printf("%s  %-8s  elong %v  phase %v  mag %s\n", dt, name,
			sexa.FmtAngle(unit.Angle(res.Elongation)), sexa.FmtAngle(unit.Angle(res.Phase)), fmtMag(res.Magnitude))
	case !res.Vector.Polar:
		fmt.Printf("%s  %-8s  % .9f  % .9f  % .9f AU\n", dt, name, v[0], v[1], v[2])
	case rec.Request.Output == ephem.Equatorial:
		fmt.Printf("%s  %-8s  %2v  %2v  %.9f AU  %s\n", dt, name,
			sexa.FmtRA(unit.RA(v[0])), sexa.FmtAngle(unit.Angle(v[1])), v[2], fmtMag(res.Magnitude))
	default:
		fmt.Printf("%s  %-8s  %v  %v  %.9f AU  %s\n", dt, name,
			sexa.FmtAngle(unit.Angle(v[0])), sexa.FmtAngle(unit.Angle(v[1])), v[2], fmtMag(res.Magnitude))
	}
}

func fmtMag(m float64) string {
	if math.IsNaN(m) {
		return "  -  "
	}
	return fmt.Sprintf("%5.2f", m)
}
