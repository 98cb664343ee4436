package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/productkeeper/internal/common"
	"github.com/dmitrijs2005/productkeeper/internal/server/auth"
	"github.com/dmitrijs2005/productkeeper/internal/server/models"
	"github.com/labstack/echo/v4"
)

func (s *Server) listProducts(c echo.Context, _ auth.Identity) error {
	const op = "list_products"

	list, err := s.products.List(c.Request().Context())
	if err != nil {
		return s.respond(c, op, Fail("Products fetch failed", err))
	}

	return s.respond(c, op, OK(http.StatusOK, "Products fetched successfully", "products", list))
}

// createProduct takes the owner from id; any owner field in the form is
// never bound.
func (s *Server) createProduct(c echo.Context, id auth.Identity) error {
	const op = "create_product"

	var req models.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return s.respond(c, op, Fail(msgMalformedBody, malformed(err)))
	}

	// a missing or unreadable part is reported by validation as required
	image, err := c.FormFile("image")
	if err != nil {
		image = nil
	}

	p, err := s.products.Create(c.Request().Context(), id, req, image)
	if err != nil {
		return s.respond(c, op, Fail("Product creation failed", err))
	}

	return s.respond(c, op, OK(http.StatusCreated, "Product created successfully", "product", p))
}

func (s *Server) deleteProduct(c echo.Context, id auth.Identity) error {
	const op = "delete_product"

	p, err := s.products.Delete(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.respond(c, op, Fail("Product not found", err))
		}
		return s.respond(c, op, Fail("Product deletion failed", err))
	}

	return s.respond(c, op, OK(http.StatusOK, "Product deleted successfully", "product", p))
}

func (s *Server) updateProduct(c echo.Context, id auth.Identity) error {
	const op = "update_product"

	if err := s.products.Update(c.Request().Context(), id, c.Param("id")); err != nil {
		if errors.Is(err, common.ErrorNotImplemented) {
			return s.respond(c, op, Fail("Product update is not implemented", err))
		}
		return s.respond(c, op, Fail("Product update failed", err))
	}

	return s.respond(c, op, OK(http.StatusOK, "Product updated successfully"))
}
