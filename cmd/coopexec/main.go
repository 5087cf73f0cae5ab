// Command coopexec runs a small demonstration program against the
// cooperative execution core, printing the observed scheduling order. It
// exists to exercise the public surface end to end: config loading,
// structured logging, environments, promises, timers, and async units.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/example/coopexec/engine"
	"github.com/example/coopexec/eventloop"
	"github.com/example/coopexec/scope"
)

// Config is the coopexec.yaml configuration.
type Config struct {
	// LogLevel is one of trace, debug, info, warning, err. Defaults to info.
	LogLevel string `yaml:"log_level,omitempty"`

	// MaxStackDepth bounds recursion; zero means the engine default.
	MaxStackDepth int `yaml:"max_stack_depth,omitempty"`

	// MicrotaskBudget caps a single microtask drain; zero means the loop
	// default.
	MicrotaskBudget int `yaml:"microtask_budget,omitempty"`
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func logLevel(s string) logiface.Level {
	switch s {
	case "trace":
		return logiface.LevelTrace
	case "debug":
		return logiface.LevelDebug
	case "warning":
		return logiface.LevelWarning
	case "err", "error":
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

func main() {
	configPath := flag.String("config", "", "path to coopexec.yaml")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(logLevel(cfg.LogLevel)),
	).Logger()

	e := engine.New(
		engine.WithLogger(logger),
		engine.WithMaxStackDepth(cfg.MaxStackDepth),
		engine.WithMicrotaskBudget(cfg.MicrotaskBudget),
		engine.WithOnUnhandledRejection(func(reason any) {
			fmt.Fprintf(os.Stderr, "unhandled rejection: %v\n", reason)
		}),
	)

	pretty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	emit := func(label string) {
		if pretty {
			fmt.Printf("\x1b[36m%s\x1b[0m\n", label)
		} else {
			fmt.Println(label)
		}
	}

	if err := run(e, emit); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the demonstration unit: synchronous logging, a zero-delay
// macrotask, an immediately-settled promise reaction, and an async unit
// awaiting a timer-backed promise. Expected order: A, D, B, C, then the
// async results.
func run(e *engine.Engine, emit func(string)) error {
	unit := &engine.Unit{
		Name: "demo",
		Decls: []scope.Decl{
			scope.Const("greeting"),
		},
		Body: func(c *engine.Call) (any, error) {
			if err := c.Env().Initialize("greeting", "hello"); err != nil {
				return nil, err
			}

			emit("A")

			c.Engine().ScheduleMacro(func() { emit("C") })

			p := c.Engine().NewPromise(func(resolve eventloop.ResolveFunc, _ eventloop.RejectFunc) {
				resolve("B")
			})
			p.Then(func(v any) any {
				emit(v.(string))
				return nil
			}, nil)

			emit("D")
			return nil, nil
		},
	}

	if _, err := e.Run(unit, nil, nil); err != nil {
		return err
	}

	delayed := e.NewPromise(func(resolve eventloop.ResolveFunc, _ eventloop.RejectFunc) {
		e.ScheduleAfter(10, func() { resolve("timer fired at tick 10") })
	})

	result := e.RunAsync(&engine.Unit{
		Name: "async-demo",
		Body: func(c *engine.Call) (any, error) {
			v, err := c.Await(delayed)
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("awaited: %v", v), nil
		},
	}, nil, nil)

	result.Then(func(v any) any {
		emit(v.(string))
		return nil
	}, nil)

	return e.RunUntilIdle()
}
