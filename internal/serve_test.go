package internal_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/loom/internal"
)

func serveApp(t *testing.T, register func(app *internal.App), opts ...internal.Option) *internal.App {
	t.Helper()
	app := internal.New(opts...)
	register(app)
	require.NoError(t, app.Freeze())
	return app
}

func doRequest(app *internal.App, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func get(app *internal.App, path string) *httptest.ResponseRecorder {
	return doRequest(app, httptest.NewRequest(http.MethodGet, path, nil))
}

func TestServeTypedRoutes(t *testing.T) {
	t.Parallel()

	app := serveApp(t, func(app *internal.App) {
		app.GET("/users/{id:int}", func(c internal.Context) (any, error) {
			return internal.M{"id": c.Param("id")}, nil
		})
		app.GET("/files/{rest:path}", func(c internal.Context) (any, error) {
			return "file:" + c.ParamString("rest"), nil
		})
	})

	t.Run("converted param reaches the handler", func(t *testing.T) {
		t.Parallel()
		w := get(app, "/users/42")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"id":42}`, w.Body.String())
	})

	t.Run("failed conversion is a not found, never a server error", func(t *testing.T) {
		t.Parallel()
		w := get(app, "/users/abc")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "<h1>404</h1>")
	})

	t.Run("catch-all joins the remainder", func(t *testing.T) {
		t.Parallel()
		w := get(app, "/files/css/site/main.css")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "file:css/site/main.css", w.Body.String())
	})
}

func TestServeMiddlewareComposition(t *testing.T) {
	t.Parallel()

	t.Run("onion order around the handler", func(t *testing.T) {
		t.Parallel()
		var trace []string
		step := func(name string) internal.Middleware {
			return func(next internal.HandlerFunc) internal.HandlerFunc {
				return func(c internal.Context) (any, error) {
					trace = append(trace, name+"-in")
					value, err := next(c)
					trace = append(trace, name+"-out")
					return value, err
				}
			}
		}

		app := serveApp(t, func(app *internal.App) {
			app.Use(step("a"))
			app.Use(step("b"))
			app.GET("/", func(c internal.Context) (any, error) {
				trace = append(trace, "handler")
				return "ok", nil
			})
		})

		w := get(app, "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"a-in", "b-in", "handler", "b-out", "a-out"}, trace)
	})

	t.Run("headers staged by middleware survive the buffered write", func(t *testing.T) {
		t.Parallel()
		before := func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) (any, error) {
				c.SetHeader("X-Before", "1")
				return next(c)
			}
		}
		after := func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) (any, error) {
				value, err := next(c)
				c.SetHeader("X-After", "2")
				return value, err
			}
		}

		app := serveApp(t, func(app *internal.App) {
			app.Use(before, after)
			app.GET("/", func(c internal.Context) (any, error) {
				return "<h1>ok</h1>", nil
			})
		})

		w := get(app, "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "1", w.Header().Get("X-Before"))
		assert.Equal(t, "2", w.Header().Get("X-After"))
		assert.Equal(t, "<h1>ok</h1>", w.Body.String())
	})

	t.Run("middleware observes the negotiated response", func(t *testing.T) {
		t.Parallel()
		var observed any
		observe := func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) (any, error) {
				value, err := next(c)
				observed = value
				return value, err
			}
		}

		app := serveApp(t, func(app *internal.App) {
			app.Use(observe)
			app.GET("/", func(c internal.Context) (any, error) {
				return "plain string", nil
			})
		})

		get(app, "/")
		resp, ok := observed.(*internal.Response)
		require.True(t, ok, "middleware saw %T, want *internal.Response", observed)
		assert.Equal(t, "plain string", string(resp.Body()))
	})

	t.Run("middleware can rewrite a buffered response", func(t *testing.T) {
		t.Parallel()
		harden := func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) (any, error) {
				value, err := next(c)
				if resp, ok := value.(*internal.Response); ok {
					return resp.WithHeader("X-Frame-Options", "DENY"), err
				}
				return value, err
			}
		}

		app := serveApp(t, func(app *internal.App) {
			app.Use(harden)
			app.GET("/", func(c internal.Context) (any, error) { return "ok", nil })
		})

		w := get(app, "/")
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})

	t.Run("short-circuit values are negotiated too", func(t *testing.T) {
		t.Parallel()
		gate := func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) (any, error) {
				return internal.M{"blocked": true}, nil
			}
		}

		app := serveApp(t, func(app *internal.App) {
			app.Use(gate)
			app.GET("/", func(c internal.Context) (any, error) { return "never", nil })
		})

		w := get(app, "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"blocked":true}`, w.Body.String())
	})

	t.Run("group middleware scopes to the group", func(t *testing.T) {
		t.Parallel()
		var hits []string
		tag := func(name string) internal.Middleware {
			return func(next internal.HandlerFunc) internal.HandlerFunc {
				return func(c internal.Context) (any, error) {
					hits = append(hits, name)
					return next(c)
				}
			}
		}

		app := serveApp(t, func(app *internal.App) {
			app.Route("/admin", func(r internal.Router) {
				r.Use(tag("admin"))
				r.GET("/panel", func(c internal.Context) (any, error) { return "panel", nil })
			})
			app.GET("/public", func(c internal.Context) (any, error) { return "public", nil })
		})

		get(app, "/public")
		assert.Empty(t, hits)

		get(app, "/admin/panel")
		assert.Equal(t, []string{"admin"}, hits)
	})
}

func TestServeUnmatchedRequests(t *testing.T) {
	t.Parallel()

	t.Run("405 lists allowed methods", func(t *testing.T) {
		t.Parallel()
		app := serveApp(t, func(app *internal.App) {
			app.GET("/tasks", func(c internal.Context) (any, error) { return "ok", nil })
		})

		w := doRequest(app, httptest.NewRequest(http.MethodPost, "/tasks", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
	})

	t.Run("app middleware observes structural errors", func(t *testing.T) {
		t.Parallel()
		var seen error
		observe := func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) (any, error) {
				value, err := next(c)
				seen = err
				return value, err
			}
		}

		app := serveApp(t, func(app *internal.App) {
			app.Use(observe)
			app.GET("/known", func(c internal.Context) (any, error) { return "ok", nil })
		})

		w := get(app, "/missing")
		assert.Equal(t, http.StatusNotFound, w.Code)
		httpErr := internal.AsHTTPError(seen)
		require.NotNil(t, httpErr)
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
	})

	t.Run("app middleware can recover a structural error", func(t *testing.T) {
		t.Parallel()
		rescue := func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) (any, error) {
				value, err := next(c)
				if httpErr := internal.AsHTTPError(err); httpErr != nil && httpErr.Code == http.StatusNotFound {
					return internal.Redirect("/"), nil
				}
				return value, err
			}
		}

		app := serveApp(t, func(app *internal.App) {
			app.Use(rescue)
			app.GET("/", func(c internal.Context) (any, error) { return "home", nil })
		})

		w := get(app, "/wat")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})
}

func TestServeErrorPaths(t *testing.T) {
	t.Parallel()

	t.Run("handler error goes through dispatch", func(t *testing.T) {
		t.Parallel()
		app := serveApp(t, func(app *internal.App) {
			app.GET("/", func(c internal.Context) (any, error) {
				return nil, internal.ErrForbidden("members only")
			})
		})

		w := get(app, "/")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "<h1>403</h1>")
	})

	t.Run("handler panic becomes a 500", func(t *testing.T) {
		t.Parallel()
		app := serveApp(t, func(app *internal.App) {
			app.GET("/", func(c internal.Context) (any, error) {
				panic("kaboom")
			})
		})

		w := get(app, "/")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "kaboom")
	})

	t.Run("debug mode exposes the panic value", func(t *testing.T) {
		t.Parallel()
		app := serveApp(t, func(app *internal.App) {
			app.GET("/", func(c internal.Context) (any, error) {
				panic("kaboom")
			})
		}, internal.WithDebug(true))

		w := get(app, "/")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "kaboom")
	})

	t.Run("connection aborts pass through untouched", func(t *testing.T) {
		t.Parallel()
		app := serveApp(t, func(app *internal.App) {
			app.GET("/", func(c internal.Context) (any, error) {
				panic(http.ErrAbortHandler)
			})
		})

		require.PanicsWithValue(t, http.ErrAbortHandler, func() {
			get(app, "/")
		})
	})

	t.Run("nil return without a write is a programmer error", func(t *testing.T) {
		t.Parallel()
		app := serveApp(t, func(app *internal.App) {
			app.GET("/", func(c internal.Context) (any, error) {
				return nil, nil
			})
		})

		w := get(app, "/")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestServeRawWrites(t *testing.T) {
	t.Parallel()

	app := serveApp(t, func(app *internal.App) {
		app.GET("/raw", func(c internal.Context) (any, error) {
			c.Response().WriteHeader(http.StatusTeapot)
			_, _ = c.Response().Write([]byte("short and stout"))
			return nil, nil
		})
	})

	w := get(app, "/raw")
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "short and stout", w.Body.String())
}

func TestServeHEAD(t *testing.T) {
	t.Parallel()

	app := serveApp(t, func(app *internal.App) {
		app.GET("/page", func(c internal.Context) (any, error) {
			return "<h1>hello</h1>", nil
		})
	})

	w := doRequest(app, httptest.NewRequest(http.MethodHead, "/page", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, fmt.Sprint(len("<h1>hello</h1>")), w.Header().Get("Content-Length"))
	assert.Empty(t, w.Body.String())
}

func TestServeStreaming(t *testing.T) {
	t.Parallel()

	t.Run("chunks arrive in order", func(t *testing.T) {
		t.Parallel()
		app := serveApp(t, func(app *internal.App) {
			app.GET("/", func(c internal.Context) (any, error) {
				return internal.NewStreamingResponse(func(yield func(string, error) bool) {
					for _, chunk := range []string{"<li>one</li>", "<li>two</li>"} {
						if !yield(chunk, nil) {
							return
						}
					}
				}), nil
			})
		})

		w := get(app, "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "<li>one</li><li>two</li>", w.Body.String())
		assert.True(t, w.Flushed)
	})

	t.Run("failure before the first chunk gets full error treatment", func(t *testing.T) {
		t.Parallel()
		app := serveApp(t, func(app *internal.App) {
			app.GET("/", func(c internal.Context) (any, error) {
				return internal.NewStreamingResponse(func(yield func(string, error) bool) {
					yield("", internal.ErrNotFound("report missing"))
				}), nil
			})
		})

		w := get(app, "/")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "<h1>404</h1>")
	})

	t.Run("mid-stream failure marks the truncation point", func(t *testing.T) {
		t.Parallel()
		app := serveApp(t, func(app *internal.App) {
			app.GET("/", func(c internal.Context) (any, error) {
				return internal.NewStreamingResponse(func(yield func(string, error) bool) {
					if !yield("<li>one</li>", nil) {
						return
					}
					yield("", errors.New("render failed"))
				}), nil
			})
		})

		w := get(app, "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "<li>one</li>\n<!-- stream aborted -->", w.Body.String())
		assert.NotContains(t, w.Body.String(), "render failed")
	})

	t.Run("mid-stream failure names the reason in debug mode", func(t *testing.T) {
		t.Parallel()
		app := serveApp(t, func(app *internal.App) {
			app.GET("/", func(c internal.Context) (any, error) {
				return internal.NewStreamingResponse(func(yield func(string, error) bool) {
					if !yield("x", nil) {
						return
					}
					yield("", errors.New("render failed"))
				}), nil
			})
		}, internal.WithDebug(true))

		w := get(app, "/")
		assert.Contains(t, w.Body.String(), "<!-- stream aborted: render failed -->")
	})

	t.Run("early client stop runs producer cleanup", func(t *testing.T) {
		t.Parallel()
		cleaned := false
		app := serveApp(t, func(app *internal.App) {
			app.GET("/", func(c internal.Context) (any, error) {
				return internal.NewStreamingResponse(func(yield func(string, error) bool) {
					defer func() { cleaned = true }()
					for i := 0; ; i++ {
						if !yield(fmt.Sprintf("<li>%d</li>", i), nil) {
							return
						}
					}
				}), nil
			})
		})

		// A write failure stops the pull loop; the producer's deferred
		// cleanup must still run.
		w := doRequest(app, httptest.NewRequest(http.MethodHead, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, cleaned)
	})
}

func TestServeMountAndStatic(t *testing.T) {
	t.Parallel()

	t.Run("mounted handler sees the stripped path", func(t *testing.T) {
		t.Parallel()
		app := serveApp(t, func(app *internal.App) {
			app.Mount("/legacy", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, "legacy:%s", r.URL.Path)
			}))
		})

		w := get(app, "/legacy/reports/7")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "legacy:/reports/7", w.Body.String())
	})

	t.Run("static serves files from the embedded tree", func(t *testing.T) {
		t.Parallel()
		assets := fstest.MapFS{
			"assets/app.css": &fstest.MapFile{Data: []byte("body{margin:0}")},
		}
		app := serveApp(t, func(app *internal.App) {
			app.Static("/assets", assets, "assets")
		})

		w := get(app, "/assets/app.css")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "body{margin:0}", w.Body.String())
		assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("static blocks directory listings", func(t *testing.T) {
		t.Parallel()
		assets := fstest.MapFS{
			"assets/app.css": &fstest.MapFile{Data: []byte("body{}")},
		}
		app := serveApp(t, func(app *internal.App) {
			app.Static("/assets", assets, "assets")
		})

		w := get(app, "/assets")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServeTrailingSlash(t *testing.T) {
	t.Parallel()

	app := serveApp(t, func(app *internal.App) {
		app.GET("/users", func(c internal.Context) (any, error) { return "list", nil })
	})

	w := get(app, "/users/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "list", w.Body.String())
}

func TestServeRedirectIsHTMXAware(t *testing.T) {
	t.Parallel()

	app := serveApp(t, func(app *internal.App) {
		app.POST("/login", func(c internal.Context) (any, error) {
			return internal.Redirect("/dashboard"), nil
		})
	})

	t.Run("plain client gets a 302", func(t *testing.T) {
		t.Parallel()
		w := doRequest(app, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	})

	t.Run("partial-update client gets hx-redirect", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("HX-Request", "true")
		w := doRequest(app, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("HX-Redirect"))
		assert.Empty(t, w.Header().Get("Location"))
	})
}

func TestServeErrorFragmentForHTMX(t *testing.T) {
	t.Parallel()

	app := serveApp(t, func(app *internal.App) {
		app.GET("/", func(c internal.Context) (any, error) { return "ok", nil })
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("HX-Request", "true")
	w := doRequest(app, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, `<div class="loom-error"`), "got %q", body)
	assert.NotContains(t, body, "<!doctype html>")
}
