package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riandyrn/otelchi"
	"go.uber.org/zap"

	"github.com/sanLimbu/task-tracker/cmd/internal"
	internaldomain "github.com/sanLimbu/task-tracker/internal"
	"github.com/sanLimbu/task-tracker/internal/envvar"
	"github.com/sanLimbu/task-tracker/internal/jsonfile"
	"github.com/sanLimbu/task-tracker/internal/kafka"
	"github.com/sanLimbu/task-tracker/internal/memcached"
	"github.com/sanLimbu/task-tracker/internal/postgresql"
	"github.com/sanLimbu/task-tracker/internal/rabbitmq"
	"github.com/sanLimbu/task-tracker/internal/redis"
	"github.com/sanLimbu/task-tracker/internal/rest"
	"github.com/sanLimbu/task-tracker/internal/service"
)

const serviceName = "task-tracker-server"

func main() {
	var env, address string

	flag.StringVar(&env, "env", "", "Environment Variables filename")
	flag.StringVar(&address, "address", ":9234", "HTTP Server Address")
	flag.Parse()

	errC, err := run(env, address)
	if err != nil {
		log.Fatalf("Couldn't run: %s", err)
	}

	if err := <-errC; err != nil {
		log.Fatalf("Error while running: %s", err)
	}
}

func run(env, address string) (_ <-chan error, err error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "zap.NewProduction")
	}

	conf, err := internal.NewConfiguration(env)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewConfiguration")
	}

	otExporter, err := internal.NewOTExporter(conf, serviceName)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewOTExporter")
	}

	var closers closerList

	closers.add(func() {
		ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = otExporter.Shutdown(ctxTimeout)
	})

	defer func() {
		if err != nil {
			closers.close()
		}
	}()

	ctx := context.Background()

	repo, closeRepo, err := newRepository(ctx, conf, logger)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "newRepository")
	}

	closers.add(closeRepo)

	msgBroker, closeBroker, err := newMessageBroker(conf, logger)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "newMessageBroker")
	}

	closers.add(closeBroker)

	svc, err := service.NewTaskStore(ctx, logger, repo, msgBroker)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "service.NewTaskStore")
	}

	logging := func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Info(r.Method,
				zap.Time("time", time.Now()),
				zap.String("url", r.URL.String()),
			)

			h.ServeHTTP(w, r)
		})
	}

	srv := newServer(serverConfig{
		Address:     address,
		Service:     svc,
		Metrics:     promhttp.Handler(),
		Middlewares: []func(next http.Handler) http.Handler{otelchi.Middleware(serviceName), logging},
	})

	errC := make(chan error, 1)

	ctx, stop := signal.NotifyContext(ctx,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		<-ctx.Done()

		logger.Info("Shutdown signal received")

		ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		defer func() {
			closers.close()

			_ = logger.Sync()

			stop()
			cancel()
			close(errC)
		}()

		srv.SetKeepAlivesEnabled(false)

		if err := srv.Shutdown(ctxTimeout); err != nil {
			errC <- err
		}

		logger.Info("Shutdown completed")
	}()

	go func() {
		logger.Info("Listening and serving", zap.String("address", address))

		// "ListenAndServe always returns a non-nil error. After Shutdown or Close, the returned error is
		// ErrServerClosed."
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	return errC, nil
}

// closerList releases the resources acquired while starting the server, in reverse order.
type closerList []func()

func (c *closerList) add(fn func()) {
	*c = append(*c, fn)
}

func (c closerList) close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// newRepository selects the datastore used for persisting the tasks document, TASKS_STORAGE is one of "file"
// (default), "redis" or "postgresql". The datastore is cached with Memcached when MEMCACHED_HOST is defined.
func newRepository(ctx context.Context, conf *envvar.Configuration, logger *zap.Logger) (service.TaskRepository, func(), error) {
	repo, name, closeFn, err := newStorage(ctx, conf, logger)
	if err != nil {
		return nil, nil, err
	}

	host, err := conf.Get("MEMCACHED_HOST")
	if err != nil {
		closeFn()
		return nil, nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "conf.Get MEMCACHED_HOST")
	}

	if host == "" {
		return repo, closeFn, nil
	}

	client, err := internal.NewMemcached(conf)
	if err != nil {
		closeFn()
		return nil, nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewMemcached")
	}

	logger.Info("Caching storage", zap.String("memcached", host))

	return memcached.NewTask(client, repo, name, logger), closeFn, nil
}

// newStorage returns the datastore and the name identifying its tasks document.
func newStorage(ctx context.Context, conf *envvar.Configuration, logger *zap.Logger) (service.TaskRepository, string, func(), error) {
	storage, err := conf.GetDefault("TASKS_STORAGE", "file")
	if err != nil {
		return nil, "", nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "conf.Get TASKS_STORAGE")
	}

	switch storage {
	case "file":
		path, err := conf.GetDefault("TASKS_FILE", jsonfile.DefaultPath)
		if err != nil {
			return nil, "", nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "conf.Get TASKS_FILE")
		}

		logger.Info("Using file storage", zap.String("path", path))

		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}

		return jsonfile.NewTask(path), "file:" + path, func() {}, nil
	case "redis":
		key, err := conf.GetDefault("REDIS_TASKS_KEY", redis.DefaultKey)
		if err != nil {
			return nil, "", nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "conf.Get REDIS_TASKS_KEY")
		}

		rdb, err := internal.NewRedis(ctx, conf)
		if err != nil {
			return nil, "", nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewRedis")
		}

		logger.Info("Using redis storage", zap.String("key", key))

		return redis.NewTask(rdb, key), "redis:" + key, func() { _ = rdb.Close() }, nil
	case "postgresql":
		pool, err := internal.NewPostgreSQL(ctx, conf)
		if err != nil {
			return nil, "", nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewPostgreSQL")
		}

		repo := postgresql.NewTask(pool, postgresql.DefaultDocument)
		if err := repo.Init(ctx); err != nil {
			pool.Close()
			return nil, "", nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "repo.Init")
		}

		logger.Info("Using postgresql storage")

		return repo, "postgresql:" + postgresql.DefaultDocument, pool.Close, nil
	}

	return nil, "", nil, internaldomain.NewErrorf(internaldomain.ErrorCodeInvalidArgument, "unknown storage %q", storage)
}

// newMessageBroker selects where task events are published, MESSAGE_BROKER is one of "none" (default),
// "rabbitmq" or "kafka".
func newMessageBroker(conf *envvar.Configuration, logger *zap.Logger) (service.TaskMessageBrokerRepository, func(), error) {
	broker, err := conf.GetDefault("MESSAGE_BROKER", "none")
	if err != nil {
		return nil, nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "conf.Get MESSAGE_BROKER")
	}

	logger.Info("Using message broker", zap.String("broker", broker))

	switch broker {
	case "none":
		return nil, func() {}, nil
	case "rabbitmq":
		rmq, err := internal.NewRabbitMQ(conf)
		if err != nil {
			return nil, nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewRabbitMQ")
		}

		return rabbitmq.NewTask(rmq.Channel), rmq.Close, nil
	case "kafka":
		producer, err := internal.NewKafkaProducer(conf)
		if err != nil {
			return nil, nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewKafkaProducer")
		}

		return kafka.NewTask(producer.Producer, producer.Topic), func() {
			producer.Producer.Flush(5000)
			producer.Producer.Close()
		}, nil
	}

	return nil, nil, internaldomain.NewErrorf(internaldomain.ErrorCodeInvalidArgument, "unknown message broker %q", broker)
}

type serverConfig struct {
	Address     string
	Service     rest.TaskService
	Metrics     http.Handler
	Middlewares []func(next http.Handler) http.Handler
}

func newServer(conf serverConfig) *http.Server {
	router := chi.NewRouter()
	router.Use(render.SetContentType(render.ContentTypeJSON))

	for _, mw := range conf.Middlewares {
		router.Use(mw)
	}

	rest.RegisterOpenAPI(router)
	rest.NewTaskHandler(conf.Service).Register(router)

	router.Handle("/metrics", conf.Metrics)

	lmt := tollbooth.NewLimiter(10, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Second})
	lmtmw := tollbooth.LimitHandler(lmt, router)

	return &http.Server{
		Handler:           lmtmw,
		Addr:              conf.Address,
		ReadTimeout:       1 * time.Second,
		ReadHeaderTimeout: 1 * time.Second,
		WriteTimeout:      1 * time.Second,
		IdleTimeout:       1 * time.Second,
	}
}
