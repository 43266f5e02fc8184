package echoServer

import (
	"github.com/labstack/echo/v4"

	"github.com/Lylyly01/Biblioteca/app/echoServer/controller/book"
	"github.com/Lylyly01/Biblioteca/app/echoServer/controller/rental"
	"github.com/Lylyly01/Biblioteca/app/echoServer/controller/user"
)

type C struct {
	Book   *book.Controller
	User   *user.Controller
	Rental *rental.Controller
}

func Register(e *echo.Echo, c C) {
	v1 := e.Group("/v1")

	// Books. The featured route must be registered before :id so "featured"
	// is not parsed as a book id.
	v1.GET("/books", c.Book.List)
	v1.POST("/books", c.Book.Create)
	v1.GET("/books/featured", c.Book.Featured)
	v1.GET("/books/:id", c.Book.Detail)
	v1.PUT("/books/:id", c.Book.Update)
	v1.DELETE("/books/:id", c.Book.Delete)
	v1.PUT("/books/:id/featured", c.Book.SetFeatured)
	v1.GET("/books/:id/rentals", c.Rental.ByBook)

	// Users
	v1.GET("/users", c.User.List)
	v1.POST("/users", c.User.Create)
	v1.GET("/users/rental-counts", c.Rental.UserCounts)
	v1.PUT("/users/:id", c.User.Update)
	v1.DELETE("/users/:id", c.User.Delete)

	// Rentals
	v1.GET("/rentals", c.Rental.Active)
	v1.POST("/rentals", c.Rental.Create)
	v1.POST("/rentals/:id/return", c.Rental.Return)
}
