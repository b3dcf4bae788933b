package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

var (
	flagShape      = flag.String("shape", "2,3", "Tensor shape as comma-separated dimension sizes")
	flagDType      = flag.String("dtype", "float32", "Element type (float32, int32, int64)")
	flagFormat     = flag.String("format", "text", "One-shot output format: 'text' (describe) or 'cbor' (metadata)")
	flagListen     = flag.String("listen", "", "Address to serve the diagnostic HTTP API on (e.g. :8080)")
	flagOTel       = flag.Bool("otel", false, "Enable OpenTelemetry tracing (stdout)")
	flagCPUProfile = flag.String("cpuprofile", "", "Write cpu profile to file")
)

func parseShape(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	dims := make([]int64, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad dimension %q: %w", p, err)
		}
		dims = append(dims, d)
	}
	return dims, nil
}

func main() {
	// Initialize logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	flag.Parse()

	if *flagOTel {
		shutdown, err := initTracer()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracer")
		}
		defer shutdown(context.Background())
	}

	if *flagCPUProfile != "" {
		f, err := os.Create(*flagCPUProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create CPU profile file")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("Could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	if *flagListen != "" {
		startServer(*flagListen, memory.NewGoAllocator())
		return
	}

	// One-shot mode: allocate, fill with a ramp, dump.
	dims, err := parseShape(*flagShape)
	if err != nil {
		log.Fatal().Err(err).Str("shape", *flagShape).Msg("Failed to parse shape")
	}

	start := time.Now()
	meta, description, err := materialize(memory.NewGoAllocator(), *flagDType, dims, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to materialize tensor")
	}

	log.Info().
		Str("dtype", *flagDType).
		Ints64("shape", meta.Shape).
		Int64("numel", meta.Numel).
		Dur("elapsed", time.Since(start)).
		Msg("Materialized tensor")

	switch *flagFormat {
	case "cbor":
		blob, err := cbor.Marshal(meta)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to encode metadata")
		}
		if _, err := os.Stdout.Write(blob); err != nil {
			log.Fatal().Err(err).Msg("Failed to write metadata")
		}
	default:
		fmt.Print(description)
	}
}

func initTracer() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("turbo"),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}
