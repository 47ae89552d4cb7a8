package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-api/config"
	"restaurant-api/events"
	"restaurant-api/handlers"
	"restaurant-api/routes"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	conf, err := config.Load(path)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	lg := config.SetupLogging(conf)
	gin.SetMode(conf.Server.GinMode)

	// Initialize database
	db, err := config.InitDB(conf, lg)
	if err != nil {
		lg.WithError(err).Fatal("database init failed")
	}

	hub := events.NewHub(lg)
	publishers := events.Multi{hub}
	if conf.Broker.AMQPURL != "" {
		broker, err := events.DialAMQP(conf.Broker.AMQPURL, conf.Broker.Exchange, lg)
		if err != nil {
			lg.WithError(err).Fatal("broker connect failed")
		}
		defer broker.Close()
		publishers = append(publishers, broker)
	}

	svc := services.New(db, publishers, lg, services.Options{
		StrictStock:            conf.Operations.StrictStock,
		ReservationDuration:    time.Duration(conf.Operations.ReservationMinutes) * time.Minute,
		LaborHourlyRate:        conf.Operations.LaborHourlyRate,
		ReleaseTableOnComplete: conf.Operations.ReleaseTableOnComplete,
	})

	if b := conf.Bootstrap; b.AdminPassword != "" {
		created, err := svc.Users.EnsureAdmin(context.Background(), services.CreateUserInput{
			Name:     b.AdminName,
			Username: b.AdminUsername,
			Email:    b.AdminEmail,
			Password: b.AdminPassword,
		})
		if err != nil {
			lg.WithError(err).Fatal("bootstrap admin failed")
		}
		if created {
			lg.WithField("username", b.AdminUsername).Info("bootstrap admin created")
		}
	}

	secret := []byte(conf.Auth.JWTSecret)
	h := handlers.New(svc, hub, secret,
		time.Duration(conf.Auth.TokenTTLHours)*time.Hour,
		time.Duration(conf.Operations.KitchenPollSeconds)*time.Second)
	r := routes.NewRouter(h, secret, lg)

	srv := &http.Server{
		Addr:              ":" + conf.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.WithField("port", conf.Server.Port).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.WithError(err).Fatal("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	lg.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.WithError(err).Error("graceful shutdown failed")
	}
}
