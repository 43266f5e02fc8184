// Package main biblioteca API.
//
// @title           Biblioteca API
// @version         1.0
// @description     library service (catalog, rentals, users).
// @BasePath        /
// @schemes         http
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/Lylyly01/Biblioteca/app/echoServer"
	bookctrl "github.com/Lylyly01/Biblioteca/app/echoServer/controller/book"
	rentalctrl "github.com/Lylyly01/Biblioteca/app/echoServer/controller/rental"
	userctrl "github.com/Lylyly01/Biblioteca/app/echoServer/controller/user"
	"github.com/Lylyly01/Biblioteca/app/echoServer/validation"
	"github.com/Lylyly01/Biblioteca/config"
	bookrepo "github.com/Lylyly01/Biblioteca/repository/book"
	rentalrepo "github.com/Lylyly01/Biblioteca/repository/rental"
	userrepo "github.com/Lylyly01/Biblioteca/repository/user"
	booksvc "github.com/Lylyly01/Biblioteca/service/book"
	rentalsvc "github.com/Lylyly01/Biblioteca/service/rental"
	usersvc "github.com/Lylyly01/Biblioteca/service/user"
	"github.com/Lylyly01/Biblioteca/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: pgx pool
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	br := bookrepo.New(db)
	ur := userrepo.New(db)
	rr := rentalrepo.New(db)

	// services
	bs := booksvc.New(db, br)
	us := usersvc.New(ur)
	rs := rentalsvc.New(db, rr, br, ur)

	// controllers
	v := validator.New()
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	userC := &userctrl.Controller{Svc: us, V: v, Log: log}
	rentalC := &rentalctrl.Controller{Svc: rs, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Book:   bookC,
		User:   userC,
		Rental: rentalC,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "env", cfg.Env, "port", port)

	e.Logger.Fatal(e.Start(":" + port))
}
