package handlers

import "github.com/labstack/echo/v4"

// RouteMiddleware carries the per-route middleware handlers attach to their
// routes. Auth is per route because public and private routes share prefixes.
type RouteMiddleware struct {
	RequireAuth        echo.MiddlewareFunc
	OptionalAuth       echo.MiddlewareFunc
	LoginThrottle      echo.MiddlewareFunc
	PostCreateThrottle echo.MiddlewareFunc
	ReactionThrottle   echo.MiddlewareFunc
	ReportThrottle     echo.MiddlewareFunc
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// withDefaults fills unset middleware with a passthrough.
func (m RouteMiddleware) withDefaults() RouteMiddleware {
	for _, mw := range []*echo.MiddlewareFunc{&m.RequireAuth, &m.OptionalAuth, &m.LoginThrottle, &m.PostCreateThrottle, &m.ReactionThrottle, &m.ReportThrottle} {
		if *mw == nil {
			*mw = passthrough
		}
	}
	return m
}
