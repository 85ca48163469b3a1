package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sanLimbu/task-tracker/internal/rest"
)

func main() {
	var address, jaegerEndpoint string

	flag.StringVar(&address, "address", "http://0.0.0.0:9234", "HTTP Server Address")
	flag.StringVar(&jaegerEndpoint, "jaeger", "", "Jaeger collector endpoint, traces are printed to stdout when empty")
	flag.Parse()

	tp := initTracer(jaegerEndpoint)

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = tp.Shutdown(ctx)
	}()

	client := &Client{
		address: address,
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}

	ctx := context.Background()

	newPtrStr := func(s string) *string {
		return &s
	}

	// Create
	var created rest.Task
	if err := client.Do(ctx, http.MethodPost, "/tasks", rest.CreateTasksRequest{
		Kind:        "con_fecha",
		Title:       "Sleep early",
		Description: "Before midnight",
		DueAt:       newPtrStr(time.Now().Add(24 * time.Hour).Format("2006-01-02T15:04")),
	}, &created); err != nil {
		log.Fatalf("Couldn't create task: %s", err)
	}

	printTask("New Task", created)

	// Update
	path := fmt.Sprintf("/tasks/%d", created.ID)

	var updated rest.Task
	if err := client.Do(ctx, http.MethodPut, path, map[string]interface{}{
		"descripcion": "Before 11pm",
		"estado":      "en_progreso",
	}, &updated); err != nil {
		log.Fatalf("Couldn't update task: %s", err)
	}

	printTask("Updated Task", updated)

	// Complete
	var completed rest.Task
	if err := client.Do(ctx, http.MethodPatch, path+"/complete", nil, &completed); err != nil {
		log.Fatalf("Couldn't complete task: %s", err)
	}

	printTask("Completed Task", completed)

	// Statistics
	var stats rest.StatisticsResponse
	if err := client.Do(ctx, http.MethodGet, "/statistics", nil, &stats); err != nil {
		log.Fatalf("Couldn't read statistics: %s", err)
	}

	fmt.Printf("Statistics\n\tTotal: %d\n\tPending: %d\n\tIn progress: %d\n\tCompleted: %d\n",
		stats.Total, stats.Pending, stats.InProgress, stats.Completed)
}

// Client calls the Task Tracker REST API.
type Client struct {
	address string
	http    *http.Client
}

// Do sends req, when not nil, as the JSON body and decodes the response into res.
func (c *Client) Do(ctx context.Context, method, path string, req, res interface{}) error {
	var body bytes.Buffer

	if req != nil {
		if err := json.NewEncoder(&body).Encode(req); err != nil {
			return fmt.Errorf("json.Encode: %w", err)
		}
	}

	r, err := http.NewRequestWithContext(ctx, method, c.address+path, &body)
	if err != nil {
		return fmt.Errorf("http.NewRequest: %w", err)
	}

	r.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(r)
	if err != nil {
		return fmt.Errorf("http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		errResp := ErrorResponse{Status: resp.StatusCode}

		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("%s %s: %d: json.Decode: %w", method, path, resp.StatusCode, err)
		}

		return fmt.Errorf("%s %s: %w", method, path, &errResp)
	}

	if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
		return fmt.Errorf("json.Decode: %w", err)
	}

	return nil
}

// ErrorResponse is the body returned by the API when a request fails.
type ErrorResponse struct {
	Status      int               `json:"-"`
	Message     string            `json:"error"`
	Validations map[string]string `json:"validations,omitempty"`
}

func (e *ErrorResponse) Error() string {
	msg := fmt.Sprintf("%d %s", e.Status, e.Message)

	keys := make([]string, 0, len(e.Validations))
	for k := range e.Validations {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		msg += fmt.Sprintf(", %s: %s", k, e.Validations[k])
	}

	return msg
}

func printTask(title string, task rest.Task) {
	fmt.Printf("%s\n\tID: %d\n", title, task.ID)
	fmt.Printf("\tTitle: %s\n", task.Title)
	fmt.Printf("\tDescription: %s\n", task.Description)
	fmt.Printf("\tStatus: %s\n", task.Status)
	fmt.Printf("\tKind: %s\n", task.Kind)
	fmt.Printf("\tInfo: %s\n", task.SpecificInfo)
}

// initTracer initializes OpenTelemetry tracing, spans are sent to Jaeger or printed to stdout.
func initTracer(jaegerEndpoint string) *sdktrace.TracerProvider {
	var exporter sdktrace.SpanExporter

	if jaegerEndpoint != "" {
		jaegerExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			log.Fatalf("Couldn't initialize jaeger exporter: %s", err)
		}

		exporter = jaegerExporter
	} else {
		stdoutExporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stdout), stdouttrace.WithPrettyPrint())
		if err != nil {
			log.Fatalf("Couldn't initialize stdout exporter: %s", err)
		}

		exporter = stdoutExporter
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp
}
