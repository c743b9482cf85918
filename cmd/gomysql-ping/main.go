// Command gomysql-ping is a smoke-test client: it opens a pool against
// the configured server, pings, runs SELECT-style sanity queries, and
// optionally serves pool stats and Prometheus metrics over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gomysql/gomysql"
	"github.com/gomysql/gomysql/internal/adminapi"
	"github.com/gomysql/gomysql/internal/config"
)

func main() {
	configPath := flag.String("config", "gomysql.yaml", "path to config file")
	query := flag.String("query", "SELECT 42", "query to run after connecting")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	sslMode := gomysql.SSLEnable
	switch cfg.Connect.SSLMode {
	case "disable":
		sslMode = gomysql.SSLDisable
	case "require":
		sslMode = gomysql.SSLRequire
	}

	metrics := gomysql.NewMetrics()
	pool := gomysql.NewPool(gomysql.PoolParams{
		Connect: gomysql.ConnectParams{
			Host:            cfg.Connect.Host,
			Port:            uint16(cfg.Connect.Port),
			UnixSocket:      cfg.Connect.UnixSocket,
			Username:        cfg.Connect.Username,
			Password:        cfg.Connect.Password,
			Database:        cfg.Connect.Database,
			SSLMode:         sslMode,
			Collation:       uint8(cfg.Connect.Collation),
			MultiStatements: cfg.Connect.MultiStatements,
			Metrics:         metrics,
		},
		InitialSize:    cfg.Pool.InitialSize,
		MaxSize:        cfg.Pool.MaxSize,
		ConnectTimeout: cfg.Pool.ConnectTimeout,
		PingInterval:   cfg.Pool.PingInterval,
		PingTimeout:    cfg.Pool.PingTimeout,
		ResetTimeout:   cfg.Pool.ResetTimeout,
		RetryInterval:  cfg.Pool.RetryInterval,
		AcquireTimeout: cfg.Pool.AcquireTimeout,
		ThreadSafe:     cfg.Pool.ThreadSafe,
		Metrics:        metrics,
	})
	defer pool.Close()

	if cfg.Admin.Enabled() {
		admin := adminapi.NewServer(pool.Stats, metrics)
		if err := admin.Start(cfg.Admin.Bind, cfg.Admin.Port); err != nil {
			log.Fatalf("starting admin server: %v", err)
		}
		defer admin.Stop()
		log.Printf("admin server listening on %s:%d", cfg.Admin.Bind, cfg.Admin.Port)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pool.GetConnection(ctx)
	if err != nil {
		if de, ok := gomysql.AsError(err); ok && de.Server() != "" {
			log.Fatalf("checkout failed: %v (server said: %s)", err, de.Server())
		}
		log.Fatalf("checkout failed: %v", err)
	}

	if err := conn.Ping(ctx); err != nil {
		log.Fatalf("ping failed: %v", err)
	}
	log.Printf("ping ok (%s server)", conn.Flavor())

	res, err := conn.Query(ctx, *query)
	if err != nil {
		log.Fatalf("query failed: %v", err)
	}
	for i := 0; i < res.NumResultsets(); i++ {
		rs := res.Resultset(i)
		for _, f := range rs.Metadata {
			fmt.Printf("%s\t", f.Name)
		}
		if len(rs.Metadata) > 0 {
			fmt.Println()
		}
		for _, row := range rs.Rows {
			for _, v := range row {
				if b, ok := v.([]byte); ok {
					fmt.Printf("%s\t", b)
				} else {
					fmt.Printf("%v\t", v)
				}
			}
			fmt.Println()
		}
	}
	conn.Release()

	if cfg.Admin.Enabled() {
		log.Printf("serving admin endpoints; ctrl-c to exit")
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
	}
}
