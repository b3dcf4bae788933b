package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/fxamacker/cbor/v2"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/miss-bug/TurboTransformers/internal/dlpack"
	"github.com/miss-bug/TurboTransformers/internal/tensor"
)

var (
	tensorsDescribed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "turbo_describe_requests_total",
		Help: "The total number of tensors materialized for describe requests",
	})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "turbo_request_duration_seconds",
		Help:    "Time spent processing describe requests",
		Buckets: prometheus.DefBuckets,
	})
)

// DescribeRequest is the CBOR body accepted by /tensors/describe.
// Data is optional; missing elements are filled with a ramp.
type DescribeRequest struct {
	Shape []int64   `cbor:"shape"`
	DType string    `cbor:"dtype"`
	Data  []float64 `cbor:"data,omitempty"`
}

// DescribeResponse is the CBOR reply: the descriptor metadata snapshot plus
// the fixed-format diagnostic text.
type DescribeResponse struct {
	Meta        tensor.Meta `cbor:"meta"`
	Description string      `cbor:"description"`
}

type Server struct {
	alloc memory.Allocator
}

func startServer(addr string, alloc memory.Allocator) {
	srv := &Server{alloc: alloc}

	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/tensors/describe", srv.handleDescribe)
	http.HandleFunc("/health", srv.handleHealth)

	log.Info().Str("addr", addr).Msg("Starting Turbo diagnostic server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

var tracer = otel.Tracer("turbo-server")

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "handleDescribe")
	defer span.End()

	start := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(start).Seconds())
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DescribeRequest
	decoder := cbor.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		span.RecordError(err)
		http.Error(w, fmt.Sprintf("Bad Request (CBOR decode): %v", err), http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.String("dtype", req.DType),
		attribute.Int("ndim", len(req.Shape)),
	)

	meta, description, err := materialize(s.alloc, req.DType, req.Shape, req.Data)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, tensor.ErrInvalidArgument) {
			http.Error(w, fmt.Sprintf("Bad Request: %v", err), http.StatusBadRequest)
		} else {
			log.Error().Err(err).Str("dtype", req.DType).Msg("Describe failed")
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
		return
	}
	tensorsDescribed.Inc()

	blob, err := cbor.Marshal(DescribeResponse{Meta: meta, Description: description})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode describe response")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/cbor")
	_, _ = w.Write(blob)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// materialize allocates a tensor of the named element type, fills it from
// fill (ramp values past the end), and returns its metadata snapshot and
// diagnostic description. The tensor is released before returning; only
// plain data leaves this function.
func materialize(alloc memory.Allocator, dtype string, shape []int64, fill []float64) (tensor.Meta, string, error) {
	switch dtype {
	case "float32":
		return materializeAs[float32](alloc, shape, fill)
	case "int32":
		return materializeAs[int32](alloc, shape, fill)
	case "int64":
		return materializeAs[int64](alloc, shape, fill)
	default:
		return tensor.Meta{}, "", fmt.Errorf("%w: unsupported dtype %q", tensor.ErrInvalidArgument, dtype)
	}
}

func materializeAs[T dlpack.Element](alloc memory.Allocator, shape []int64, fill []float64) (tensor.Meta, string, error) {
	tn, err := tensor.New[T](alloc, shape...)
	if err != nil {
		return tensor.Meta{}, "", err
	}
	defer tn.Release()

	data, err := tensor.MutableData[T](tn)
	if err != nil {
		return tensor.Meta{}, "", err
	}
	for i := range data {
		if i < len(fill) {
			data[i] = T(fill[i])
		} else {
			data[i] = T(i)
		}
	}

	var b strings.Builder
	if err := tensor.Describe[T](tn, &b); err != nil {
		return tensor.Meta{}, "", err
	}
	return tn.Meta(), b.String(), nil
}
