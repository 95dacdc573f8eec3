// Command gameserver is the process entrypoint: it loads Config, builds
// the shared fabric/scheduler/metrics substrate, then starts whichever
// of the gRPC auth plane, TCP pipeline, and UDP pipeline ENABLE_* turns
// on, shutting all of them down together on SIGINT/SIGTERM. Grounded on
// the teacher's main.go: flag-free env config, a zerolog root logger,
// one signal channel blocking until shutdown, then a close loop over
// every started component.
package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"

	"github.com/wqdsca/police-thief/internal/authgrpc"
	"github.com/wqdsca/police-thief/internal/config"
	"github.com/wqdsca/police-thief/internal/fabric"
	"github.com/wqdsca/police-thief/internal/idgen"
	"github.com/wqdsca/police-thief/internal/logging"
	"github.com/wqdsca/police-thief/internal/perf/metrics"
	"github.com/wqdsca/police-thief/internal/perf/scheduler"
	"github.com/wqdsca/police-thief/internal/rediskv"
	"github.com/wqdsca/police-thief/internal/tcp"
	"github.com/wqdsca/police-thief/internal/udp"
)

// exit codes, per spec.md §6.
const (
	exitClean       = 0
	exitFatalConfig = 1
	exitBindFailure = 2
)

var errUnauthenticated = errors.New("gameserver: grpc auth plane disabled, no token verifier available")

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Root().Error().Err(err).Msg("fatal configuration error")
		os.Exit(exitFatalConfig)
	}

	log := logging.Init(logging.Options{
		JSON:          cfg.LogJSONFormat,
		Debug:         cfg.LogDebugMode,
		ServiceName:   "gameserver",
		MaxFileSizeMB: cfg.LogMaxFileSizeMB,
		RetentionDays: cfg.LogRetentionDays,
	})

	fab := fabric.New(log, 4096)
	sched := scheduler.New(scheduler.Config{
		MinWorkers:         2,
		MaxWorkers:         clampWorkers(runtime.NumCPU()),
		InitialWorkers:     4,
		QueueCapacity:      4096,
		EnableWorkStealing: true,
		ScaleUpThreshold:   0.75,
		ScaleDownThreshold: 0.25,
	})
	reg := metrics.New(prometheus.DefaultRegisterer)
	ids := idgen.NewGenerator()
	skills := fabric.NewSkillCatalog(defaultSkills())

	if cfg.EnableMonitoring {
		rc := redis.NewClient(&redis.Options{Addr: net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort))})
		rdb := rediskv.New(rc)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable at startup, continuing without it")
		}
		cancel()
	}

	// verify is the TokenVerifier both tcp and udp accept; it is declared
	// with the bare function signature so it assigns to either package's
	// named type without an explicit conversion.
	var verify func(accessToken string) (int64, string, error)
	var grpcServer *grpc.Server

	if cfg.EnableGRPC {
		store := authgrpc.NewMemStore()
		authSvc := authgrpc.NewService(cfg.JWTSecretKey, store, authgrpc.NewNoSocialExchanger(), log)
		verify = authSvc.VerifyAccessToken

		grpcServer = authgrpc.NewGRPCServer()
		authgrpc.RegisterAuthServer(grpcServer, authSvc)
	} else {
		verify = func(string) (int64, string, error) { return 0, "", errUnauthenticated }
	}

	var tcpSrv *tcp.Server
	var udpSrv *udp.Server
	var grpcListener net.Listener

	if cfg.EnableGRPC {
		addr := net.JoinHostPort(cfg.GRPCHost, strconv.Itoa(cfg.GRPCPort))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			log.Error().Err(err).Str("addr", addr).Msg("grpc bind failed")
			os.Exit(exitBindFailure)
		}
		grpcListener = ln
		go func() {
			if err := grpcServer.Serve(ln); err != nil {
				log.Error().Err(err).Msg("grpc server stopped")
			}
		}()
		log.Info().Str("addr", addr).Msg("grpc auth plane listening")
	}

	if cfg.EnableTCP {
		router := tcp.NewRouter()
		tcp.RegisterHandlers(router, fab, verify, func() uint32 { return uint32(ids.Next()) })
		tcpSrv = tcp.New(tcp.Config{Host: cfg.TCPHost, Port: cfg.TCPPort}, fab, sched, router, ids, log)
		go func() {
			if err := tcpSrv.Serve(); err != nil {
				log.Error().Err(err).Msg("tcp server stopped")
				os.Exit(exitBindFailure)
			}
		}()
		log.Info().Str("host", cfg.TCPHost).Int("port", cfg.TCPPort).Msg("tcp pipeline listening")
	}

	if cfg.EnableRUDP {
		udpSrv = udp.New(udp.Config{Host: cfg.UDPHost, Port: cfg.UDPPort, TickRate: 60}, fab, sched, ids, skills, reg, verify, log)
		go func() {
			if err := udpSrv.Serve(); err != nil {
				log.Error().Err(err).Msg("udp server stopped")
				os.Exit(exitBindFailure)
			}
		}()
		log.Info().Str("host", cfg.UDPHost).Int("port", cfg.UDPPort).Msg("udp pipeline listening")
	}

	log.Info().Msg("gameserver started, ^C to shut down")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	log.Info().Msg("shutting down")

	if udpSrv != nil {
		if err := udpSrv.Close(); err != nil {
			log.Warn().Err(err).Msg("udp close error")
		}
	}
	if tcpSrv != nil {
		if err := tcpSrv.Close(); err != nil {
			log.Warn().Err(err).Msg("tcp close error")
		}
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if grpcListener != nil {
		_ = grpcListener.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := sched.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("scheduler shutdown error")
	}
	cancel()

	os.Exit(exitClean)
}

func clampWorkers(n int) int {
	if n < 2 {
		return 2
	}
	if n > 16 {
		return 16
	}
	return n
}

// defaultSkills seeds the catalog with the handful of skills spec.md §5's
// combat scenarios exercise. A live deployment would load these from
// rediskv or a config file; none of that surface is specified, so a
// fixed table stands in for it.
func defaultSkills() []fabric.SkillDef {
	return []fabric.SkillDef{
		{
			ID: "fireball", ManaCost: 20, Cooldown: 2 * time.Second, CastTime: 500 * time.Millisecond,
			Range: 30, AOERadius: 5, BaseDamage: 40, ScalingFactor: 1.08,
		},
		{
			ID: "heal", ManaCost: 25, Cooldown: 3 * time.Second, CastTime: 800 * time.Millisecond,
			Range: 20, BaseHeal: 50, ScalingFactor: 1.06,
		},
		{
			ID: "slash", ManaCost: 5, Cooldown: 500 * time.Millisecond, CastTime: 0,
			Range: 4, BaseDamage: 15, ScalingFactor: 1.04,
		},
	}
}
