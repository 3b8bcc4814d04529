package http1

import (
	"bufio"
	"io"
	stdhttp "net/http"
	"strings"
	"testing"

	"github.com/indigo-web/lattice/config"
	"github.com/indigo-web/lattice/http"
	"github.com/indigo-web/lattice/http/method"
	"github.com/indigo-web/lattice/http/proto"
	"github.com/indigo-web/lattice/http/status"
	"github.com/indigo-web/lattice/transport/dummy"
	"github.com/stretchr/testify/require"
)

func getSuit(cfg *config.Config, handler http.HandlerFunc, data ...string) (*Suit, *dummy.Client) {
	pieces := make([][]byte, len(data))
	for i, piece := range data {
		pieces[i] = []byte(piece)
	}

	client := dummy.NewClient(pieces...)
	return New(cfg, handler, client, nil), client
}

func disperseString(raw string, n int) []string {
	var pieces []string
	for _, piece := range disperse([]byte(raw), n) {
		pieces = append(pieces, string(piece))
	}

	return pieces
}

// readResponses parses all the responses from the raw data.
func readResponses(t *testing.T, raw string, methods ...string) (resps []*stdhttp.Response, bodies []string) {
	reader := bufio.NewReader(strings.NewReader(raw))
	for _, m := range methods {
		req, err := stdhttp.NewRequest(m, "/", nil)
		require.NoError(t, err)
		resp, err := stdhttp.ReadResponse(reader, req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		resps = append(resps, resp)
		bodies = append(bodies, string(body))
	}

	_, err := reader.ReadByte()
	require.ErrorIs(t, err, io.EOF, "unexpected trailing data")

	return resps, bodies
}

func echo(r *http.Request, w *http.ResponseWriter) {
	body, err := r.Body().String()
	if err != nil {
		_ = w.Code(status.BadRequest)
		return
	}

	_ = w.String("got data: " + body)
}

func TestSuit(t *testing.T) {
	t.Run("simple request", func(t *testing.T) {
		s, client := getSuit(config.Default(), func(r *http.Request, w *http.ResponseWriter) {
			require.Equal(t, method.GET, r.Method())
			require.Equal(t, "/hello", r.Path())
			require.Equal(t, proto.HTTP11, r.Proto())
			_ = w.String("Hello, world!")
		}, "GET /hello HTTP/1.1\r\nHost: localhost\r\n\r\n")

		require.True(t, s.ServeOnce())
		require.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 13\r\n\r\nHello, world!", client.Written())
		require.False(t, s.ServeOnce())
		require.True(t, client.IsIdle())
	})

	t.Run("fixed body", func(t *testing.T) {
		s, client := getSuit(config.Default(), echo,
			"POST / HTTP/1.1\r\nContent-Length: 11\r\n\r\nasdfasdfasf",
		)

		s.Serve()
		_, bodies := readResponses(t, client.Written(), stdhttp.MethodPost)
		require.Equal(t, []string{"got data: asdfasdfasf"}, bodies)
	})

	t.Run("chunked body dispersed", func(t *testing.T) {
		raw := "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
			"5\r\nHello\r\n7;ext=1\r\n, world\r\n1\r\n!\r\n0\r\nTrailer: ignored\r\n\r\n" +
			"GET / HTTP/1.1\r\n\r\n"

		s, client := getSuit(config.Default(), echo, disperseString(raw, 3)...)
		s.Serve()

		_, bodies := readResponses(t, client.Written(), stdhttp.MethodPost, stdhttp.MethodGet)
		require.Equal(t, []string{"got data: Hello, world!", "got data: "}, bodies)
	})

	t.Run("pipelining", func(t *testing.T) {
		raw := "GET /first HTTP/1.1\r\n\r\n" +
			"POST /second HTTP/1.1\r\nContent-Length: 4\r\n\r\nbody" +
			"HEAD /third HTTP/1.1\r\n\r\n" +
			"GET /fourth HTTP/1.1\r\n\r\n"

		var paths []string
		s, client := getSuit(config.Default(), func(r *http.Request, w *http.ResponseWriter) {
			paths = append(paths, r.Path())
			_ = w.String(r.Path())
		}, raw)

		s.Serve()
		require.Equal(t, []string{"/first", "/second", "/third", "/fourth"}, paths)

		resps, bodies := readResponses(t, client.Written(),
			stdhttp.MethodGet, stdhttp.MethodPost, stdhttp.MethodHead, stdhttp.MethodGet,
		)
		require.Equal(t, []string{"/first", "/second", "", "/fourth"}, bodies)
		require.Equal(t, int64(len("/third")), resps[2].ContentLength)
	})

	t.Run("unread body is drained", func(t *testing.T) {
		raw := "POST / HTTP/1.1\r\nContent-Length: 7\r\n\r\nignored" +
			"POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n3\r\nabc\r\n0\r\n\r\n" +
			"GET /last HTTP/1.1\r\n\r\n"

		var paths []string
		s, client := getSuit(config.Default(), func(r *http.Request, w *http.ResponseWriter) {
			paths = append(paths, r.Path())
		}, disperseString(raw, 5)...)

		s.Serve()
		require.Equal(t, []string{"/", "/", "/last"}, paths)
		readResponses(t, client.Written(), stdhttp.MethodPost, stdhttp.MethodPost, stdhttp.MethodGet)
	})

	t.Run("keep-alive", func(t *testing.T) {
		for _, tc := range []struct {
			Name, Request string
			KeepAlive     bool
		}{
			{"HTTP/1.1", "GET / HTTP/1.1\r\n\r\n", true},
			{"HTTP/1.1 close", "GET / HTTP/1.1\r\nConnection: keep-alive, Close\r\n\r\n", false},
			{"HTTP/1.0", "GET / HTTP/1.0\r\n\r\n", false},
			{"HTTP/1.0 keep-alive", "GET / HTTP/1.0\r\nConnection: keep-alive\r\n\r\n", false},
		} {
			t.Run(tc.Name, func(t *testing.T) {
				s, client := getSuit(config.Default(), func(*http.Request, *http.ResponseWriter) {}, tc.Request)
				require.Equal(t, tc.KeepAlive, s.ServeOnce())

				if !tc.KeepAlive && strings.HasPrefix(tc.Request[len("GET / "):], "HTTP/1.1") {
					require.Contains(t, client.Written(), "Connection: close\r\n")
				}
			})
		}
	})

	t.Run("stopping server closes connections", func(t *testing.T) {
		client := dummy.NewClient([]byte("GET / HTTP/1.1\r\n\r\nGET / HTTP/1.1\r\n\r\n"))
		s := New(config.Default(), http.HandlerFunc(func(*http.Request, *http.ResponseWriter) {}), client, func() bool {
			return true
		})

		require.False(t, s.ServeOnce())
		require.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\nConnection: close\r\n\r\n", client.Written())
	})

	t.Run("100-continue", func(t *testing.T) {
		for _, tc := range []struct {
			Name, Request string
			Continue      bool
		}{
			{"HTTP/1.1", "POST / HTTP/1.1\r\nExpect: 100-continue\r\nContent-Length: 2\r\n\r\nhi", true},
			{"HTTP/1.0", "POST / HTTP/1.0\r\nExpect: 100-continue\r\nContent-Length: 2\r\n\r\nhi", false},
			{"other expectation", "POST / HTTP/1.1\r\nExpect: something\r\nContent-Length: 2\r\n\r\nhi", false},
			{"no expectation", "POST / HTTP/1.1\r\nContent-Length: 2\r\n\r\nhi", false},
		} {
			t.Run(tc.Name, func(t *testing.T) {
				s, client := getSuit(config.Default(), echo, tc.Request)
				s.ServeOnce()

				written := client.Written()
				require.Equal(t, tc.Continue, strings.HasPrefix(written, "HTTP/1.1 100 Continue\r\n\r\n"))
				require.True(t, strings.HasSuffix(written, "got data: hi"))
			})
		}
	})

	t.Run("malformed requests", func(t *testing.T) {
		for _, tc := range []struct {
			Name, Request string
			Code          int
		}{
			{"bad method", "G(T / HTTP/1.1\r\n\r\n", 400},
			{"bad version", "GET / HTTP/1.x\r\n\r\n", 400},
			{"unsupported version", "GET / HTTP/2.0\r\n\r\n", 505},
			{"bad header", "GET / HTTP/1.1\r\nHe llo: world\r\n\r\n", 400},
			{"obsolete folding", "GET / HTTP/1.1\r\nHello: world\r\n  folded\r\n\r\n", 400},
			{"ambiguous framing", "POST / HTTP/1.1\r\nContent-Length: 5\r\nTransfer-Encoding: chunked\r\n\r\n", 400},
			{"unsupported coding", "POST / HTTP/1.1\r\nTransfer-Encoding: gzip, chunked\r\n\r\n", 501},
			{"bad content length", "POST / HTTP/1.1\r\nContent-Length: 5a\r\n\r\n", 400},
			{"bad chunk", "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\nzz\r\n", 400},
		} {
			t.Run(tc.Name, func(t *testing.T) {
				s, client := getSuit(config.Default(), echo, tc.Request)
				require.False(t, s.ServeOnce())

				resps, _ := readResponses(t, client.Written(), stdhttp.MethodGet)
				require.Equal(t, tc.Code, resps[0].StatusCode)
				require.True(t, resps[0].Close)
			})
		}
	})

	t.Run("error responses keep the protocol", func(t *testing.T) {
		for _, tc := range []struct {
			Name, Request, StatusLine string
		}{
			{
				"HTTP/1.0 framing error",
				"POST / HTTP/1.0\r\nContent-Length: 1\r\nTransfer-Encoding: chunked\r\n\r\n",
				"HTTP/1.0 400 Bad Request\r\n",
			},
			{
				"HTTP/1.0 bad content length",
				"POST / HTTP/1.0\r\nContent-Length: -1\r\n\r\n",
				"HTTP/1.0 400 Bad Request\r\n",
			},
			{
				"HTTP/1.1 unsupported coding",
				"POST / HTTP/1.1\r\nTransfer-Encoding: gzip\r\n\r\n",
				"HTTP/1.1 501 Not Implemented\r\n",
			},
		} {
			t.Run(tc.Name, func(t *testing.T) {
				s, client := getSuit(config.Default(), echo, tc.Request)
				require.False(t, s.ServeOnce())
				require.True(t, strings.HasPrefix(client.Written(), tc.StatusLine), client.Written())
			})
		}
	})

	t.Run("bare LF after chunk data", func(t *testing.T) {
		var bodyErr error
		s, client := getSuit(config.Default(), func(r *http.Request, w *http.ResponseWriter) {
			_, bodyErr = r.Body().String()
			if bodyErr != nil {
				_ = w.Code(status.BadRequest)
			}
		}, "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nHello\n0\r\n\r\n")

		require.False(t, s.ServeOnce())
		require.ErrorIs(t, bodyErr, status.ErrBadChunk)
		resps, _ := readResponses(t, client.Written(), stdhttp.MethodPost)
		require.Equal(t, 400, resps[0].StatusCode)
		require.True(t, resps[0].Close)
	})

	t.Run("limits", func(t *testing.T) {
		t.Run("head too large", func(t *testing.T) {
			cfg := config.Default()
			cfg.NET.ReadBufferSize.Default = 64
			cfg.NET.ReadBufferSize.Maximal = 128
			s, client := getSuit(cfg, echo, "GET / HTTP/1.1\r\nCookie: "+strings.Repeat("a", 256)+"\r\n\r\n")

			require.False(t, s.ServeOnce())
			resps, _ := readResponses(t, client.Written(), stdhttp.MethodGet)
			require.Equal(t, 431, resps[0].StatusCode)
		})

		t.Run("too many headers", func(t *testing.T) {
			cfg := config.Default()
			cfg.Headers.MaxNumber = 2
			s, client := getSuit(cfg, echo, "GET / HTTP/1.1\r\nA: 1\r\nB: 2\r\nC: 3\r\n\r\n")

			require.False(t, s.ServeOnce())
			resps, _ := readResponses(t, client.Written(), stdhttp.MethodGet)
			require.Equal(t, 431, resps[0].StatusCode)
		})

		t.Run("declared body too large", func(t *testing.T) {
			cfg := config.Default()
			cfg.Body.MaxSize = 4
			s, client := getSuit(cfg, echo, "POST / HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")

			require.False(t, s.ServeOnce())
			resps, _ := readResponses(t, client.Written(), stdhttp.MethodPost)
			require.Equal(t, 413, resps[0].StatusCode)
		})

		t.Run("unread chunked body too large", func(t *testing.T) {
			cfg := config.Default()
			cfg.Body.MaxSize = 4
			s, client := getSuit(cfg, func(_ *http.Request, w *http.ResponseWriter) {
				_ = w.String("never sent")
			}, "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n")

			require.False(t, s.ServeOnce())
			resps, bodies := readResponses(t, client.Written(), stdhttp.MethodPost)
			require.Equal(t, 413, resps[0].StatusCode)
			require.NotContains(t, bodies[0], "never sent")
		})
	})

	t.Run("handler panic", func(t *testing.T) {
		s, client := getSuit(config.Default(), func(_ *http.Request, w *http.ResponseWriter) {
			_ = w.Header("Hello", "world")
			panic("oops")
		}, "GET / HTTP/1.1\r\n\r\nGET / HTTP/1.1\r\n\r\n")

		require.False(t, s.ServeOnce())
		resps, _ := readResponses(t, client.Written(), stdhttp.MethodGet)
		require.Equal(t, 500, resps[0].StatusCode)
		require.Empty(t, resps[0].Header.Get("Hello"))
		require.True(t, resps[0].Close)
	})

	t.Run("handler panic after commit", func(t *testing.T) {
		s, client := getSuit(config.Default(), func(_ *http.Request, w *http.ResponseWriter) {
			_ = w.String("partial")
			_ = w.Flush()
			panic("oops")
		}, "GET / HTTP/1.1\r\n\r\n")

		require.False(t, s.ServeOnce())
		require.Equal(t, "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n7\r\npartial\r\n", client.Written())
	})

	t.Run("stale request", func(t *testing.T) {
		var first *http.Request
		s, _ := getSuit(config.Default(), func(r *http.Request, _ *http.ResponseWriter) {
			if first == nil {
				first = r
				require.Equal(t, "/first", r.Path())
			}
		}, "GET /first HTTP/1.1\r\n\r\nGET /second HTTP/1.1\r\n\r\n")

		require.True(t, s.ServeOnce())
		require.True(t, first.Valid())
		require.True(t, s.ServeOnce())
		require.False(t, first.Valid())
		require.PanicsWithValue(t, http.ErrStaleRequest, func() {
			_ = first.Path()
		})
	})

	t.Run("idle flag", func(t *testing.T) {
		s, client := getSuit(config.Default(), echo, "GET / HT")
		require.False(t, s.ServeOnce())
		require.False(t, client.IsIdle())
		require.Empty(t, client.Written())

		s, client = getSuit(config.Default(), echo)
		require.False(t, s.ServeOnce())
		require.True(t, client.IsIdle())
	})

	t.Run("scenarios", func(t *testing.T) {
		t.Run("A", func(t *testing.T) {
			s, client := getSuit(config.Default(), func(r *http.Request, w *http.ResponseWriter) {
				require.Equal(t, method.POST, r.Method())
				require.Equal(t, "/", r.Path())
				require.Equal(t, proto.HTTP11, r.Proto())
				echo(r, w)
			}, "POST / HTTP/1.1\r\nContent-Length: 11\r\n\r\nasdfasdfasf")

			require.True(t, s.ServeOnce())
			require.True(t, strings.HasSuffix(client.Written(), "got data: asdfasdfasf"))
		})

		t.Run("B", func(t *testing.T) {
			s, client := getSuit(config.Default(), echo, "GET /x HTTP/1.0\r\nContent-Length: 5\r\n\r\n")

			require.False(t, s.ServeOnce())
			require.Equal(t, "HTTP/1.0 200 OK\r\nContent-Length: 10\r\n\r\ngot data: ", client.Written())
		})

		t.Run("C", func(t *testing.T) {
			s, client := getSuit(config.Default(), echo,
				"POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\nContent-Length: 3\r\n\r\nabc",
			)

			require.False(t, s.ServeOnce())
			require.True(t, strings.HasPrefix(client.Written(), "HTTP/1.1 400 Bad Request\r\n"))
		})

		t.Run("D", func(t *testing.T) {
			s, client := getSuit(config.Default(), func(r *http.Request, w *http.ResponseWriter) {
				value, _ := r.Headers().Get("Hello")
				_ = w.String(value)
			}, "GET / HTTP/1.1\r\nHello: world\r\n", "\r", "\n")

			require.True(t, s.ServeOnce())
			require.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nworld", client.Written())
		})
	})
}

func BenchmarkSuit(b *testing.B) {
	raw := []byte("GET /hello HTTP/1.1\r\nHost: localhost\r\nAccept: */*\r\n\r\n")
	client := dummy.NewClient(raw).LoopReads()
	s := New(config.Default(), http.HandlerFunc(func(_ *http.Request, w *http.ResponseWriter) {
		_ = w.String("Hello, world!")
	}), client, nil)

	b.SetBytes(int64(len(raw)))
	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		s.ServeOnce()
		client.Reset()
	}
}
