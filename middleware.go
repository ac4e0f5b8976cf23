package main

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
)

type routerOptions struct {
	RateLimit      float64 // requests per second per client, 0 disables
	SanitizeTitles bool
}

// newRouter wires the todo handler behind the request log, the rate limiter
// and panic recovery.
func newRouter(store *Store, logger RequestLogger, console *log.Logger, opts routerOptions) http.Handler {
	var h http.Handler = NewTodoHandler(store, logger, console, opts.SanitizeTitles)
	if opts.RateLimit > 0 {
		h = rateLimit(h, opts.RateLimit)
	}
	h = logRequests(h, logger)
	return recoverPanics(h, console)
}

// logRequests writes the "<METHOD> <PATH>" line before anything else looks
// at the request.
func logRequests(next http.Handler, logger RequestLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Log(r.Method + " " + r.URL.EscapedPath())
		next.ServeHTTP(w, r)
	})
}

func rateLimit(next http.Handler, rate float64) http.Handler {
	lmt := tollbooth.NewLimiter(rate, &limiter.ExpirableOptions{
		DefaultExpirationTTL: time.Hour,
	})
	lmt.SetMessage("Too Many Requests")
	lmt.SetMessageContentType("text/plain; charset=utf-8")
	return tollbooth.LimitHandler(lmt, next)
}

func recoverPanics(next http.Handler, console *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				console.Error("Panic while serving request", "method", r.Method, "path", r.URL.Path, "panic", p)
				respondText(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
