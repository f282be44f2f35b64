package workers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"ibtbridge/config"
	"ibtbridge/workers/handlers"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func NewRouter(d *handlers.Dashboard, staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(preflight)

	r.Get("/state", d.State)
	r.Get("/health", d.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/panels", d.GetPanels)
	r.Route("/panels/{chain}", func(r chi.Router) {
		r.Get("/", d.GetPanel)
		r.Get("/balance", d.GetBalance)
		r.Post("/connect", d.Connect)
		r.Post("/disconnect", d.Disconnect)
		r.Post("/refresh", d.Refresh)
		r.Post("/mint", d.Mint)
		r.Post("/burn", d.Burn)
		r.Get("/forms/{form}", d.GetForm)
	})
	r.Post("/wallets/sui/network", d.SelectSuiNetwork)
	r.Put("/wallets/eth/accounts", d.SetEVMAccounts)

	r.Get("/stats/{phase}", d.GetOperationsByPhase)
	r.Get("/tx/{hash}", d.GetOperationByTxHash)

	// a bit of logic to prevent directory listing; http.Dir keeps every
	// lookup inside filesDir
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		filesDir := staticDir
		if !filepath.IsAbs(filesDir) {
			workDir, _ := os.Getwd()
			filesDir = filepath.Join(workDir, staticDir)
		}
		root := http.Dir(filesDir)

		file, fileInfo, err := openFile(root, path.Clean("/"+r.URL.Path))
		if err != nil || fileInfo.IsDir() {
			if file != nil {
				file.Close()
			}
			file, fileInfo, err = openFile(root, "/index.html")
			if err != nil {
				http.NotFound(w, r)
				return
			}
		}
		defer file.Close()

		http.ServeContent(w, r, fileInfo.Name(), fileInfo.ModTime(), file)
	})

	return r
}

// Worker_HTTP serves the dashboard until SIGINT/SIGTERM.
func openFile(root http.FileSystem, name string) (http.File, os.FileInfo, error) {
	file, err := root.Open(name)
	if err != nil {
		return nil, nil, err
	}
	fileInfo, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return file, fileInfo, nil
}

func Worker_HTTP(d *handlers.Dashboard) {
	log.Printf("Starting HTTP service")

	r := NewRouter(d, config.Config.Server.StaticDir)

	var server *http.Server

	if config.Config.Server.UseSSL {
		cert, err := tls.LoadX509KeyPair("certchain.pem", "privatekey.pem")
		if err != nil {
			log.Fatalf("error loading TLS certificate: %s", err)
		}
		server = &http.Server{
			Addr:    ":443",
			Handler: r,
			TLSConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
		}
	} else {
		server = &http.Server{
			Addr:    fmt.Sprintf(":%d", config.Config.Server.Port),
			Handler: r,
		}
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if config.Config.Server.UseSSL {
			if err := server.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
				log.Fatalf("error listening to: %s", err)
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("error listening to: %s", err)
			}
		}
	}()
	log.Printf("HTTP service started on %s", server.Addr)

	<-done
	log.Print("HTTP service stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP service shutdown error: %+v", err)
	}
	log.Print("HTTP service shutdown normal")
}

// preflight answers every OPTIONS request before routing.
func preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			CORSHeaders(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func CORSHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
	w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Origin, X-Requested-With")
}
