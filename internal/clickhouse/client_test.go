package clickhouse_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chweb/chweb/internal/clickhouse"
	"github.com/chweb/chweb/internal/config"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*config.ClickHouseConfig)) *clickhouse.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.ClickHouseConfig{
		URL:         server.URL,
		Compression: config.CompressionNone,
		DialTimeout: time.Second,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	client, err := clickhouse.NewClient(cfg)
	require.NoError(t, err)

	return client
}

func readAll(t *testing.T, stream io.ReadCloser) string {
	t.Helper()

	defer func() {
		assert.NoError(t, stream.Close())
	}()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)

	return string(data)
}

func TestClient_Query(t *testing.T) {
	t.Run("sends statement with format and credentials", func(t *testing.T) {
		var gotBody, gotUser, gotKey, gotDatabase, gotTeam, gotMethod string

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
			gotMethod = r.Method
			gotUser = r.Header.Get("X-ClickHouse-User")
			gotKey = r.Header.Get("X-ClickHouse-Key")
			gotDatabase = r.Header.Get("X-ClickHouse-Database")
			gotTeam = r.Header.Get("X-Team")

			_, _ = io.WriteString(w, "id\tname\n1\tAlice\n")
		}, func(cfg *config.ClickHouseConfig) {
			cfg.User = "viewer"
			cfg.Password = "secret"
			cfg.Database = "analytics"
			cfg.Headers = map[string]string{"X-Team": "data"}
		})

		stream, err := client.Query(context.Background(), "SELECT id, name FROM users")
		require.NoError(t, err)

		assert.Equal(t, "id\tname\n1\tAlice\n", readAll(t, stream))
		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "SELECT id, name FROM users\nFORMAT TabSeparatedWithNames", gotBody)
		assert.Equal(t, "viewer", gotUser)
		assert.Equal(t, "secret", gotKey)
		assert.Equal(t, "analytics", gotDatabase)
		assert.Equal(t, "data", gotTeam)
	})

	t.Run("trailing semicolon is dropped", func(t *testing.T) {
		var gotBody string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
		})

		stream, err := client.Query(context.Background(), "  SELECT 1;  \n")
		require.NoError(t, err)
		readAll(t, stream)

		assert.Equal(t, "SELECT 1\nFORMAT TabSeparatedWithNames", gotBody)
	})

	t.Run("no credentials headers without user", func(t *testing.T) {
		var hasUser, hasKey bool
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, hasUser = r.Header["X-Clickhouse-User"]
			_, hasKey = r.Header["X-Clickhouse-Key"]
		})

		stream, err := client.Query(context.Background(), "SELECT 1")
		require.NoError(t, err)
		readAll(t, stream)

		assert.False(t, hasUser)
		assert.False(t, hasKey)
	})

	t.Run("server exception", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-ClickHouse-Exception-Code", "62")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, "Code: 62. DB::Exception: Syntax error: failed at position 1 (SELEC)\n")
		})

		stream, err := client.Query(context.Background(), "SELEC 1")
		require.Error(t, err)
		assert.Nil(t, stream)

		var chErr *clickhouse.Error
		require.True(t, errors.As(err, &chErr))
		assert.Equal(t, http.StatusBadRequest, chErr.StatusCode)
		assert.Equal(t, "62", chErr.Code)
		assert.Equal(t, "Code: 62. DB::Exception: Syntax error: failed at position 1 (SELEC)", err.Error())
	})

	t.Run("authentication failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-ClickHouse-Exception-Code", "516")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, "Code: 516. DB::Exception: viewer: Authentication failed")
		})

		_, err := client.Query(context.Background(), "SELECT 1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Authentication failed")
	})

	t.Run("empty error body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.Query(context.Background(), "SELECT 1")
		require.Error(t, err)
		assert.Equal(t, "clickhouse returned HTTP 502", err.Error())
	})

	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client, err := clickhouse.NewClient(config.ClickHouseConfig{URL: url, DialTimeout: time.Second})
		require.NoError(t, err)

		_, err = client.Query(context.Background(), "SELECT 1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "send request")
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Query(ctx, "SELECT sleep(3)")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClient_Query_Compression(t *testing.T) {
	const payload = "n\ts\n1\tone\n2\ttwo\n"

	encoders := map[string]func(w io.Writer) io.WriteCloser{
		config.CompressionGzip: func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) },
		config.CompressionDeflate: func(w io.Writer) io.WriteCloser {
			return zlib.NewWriter(w)
		},
		config.CompressionZstd: func(w io.Writer) io.WriteCloser {
			enc, err := zstd.NewWriter(w)
			if err != nil {
				panic(err)
			}
			return enc
		},
		config.CompressionLz4: func(w io.Writer) io.WriteCloser { return lz4.NewWriter(w) },
	}

	for method, newEncoder := range encoders {
		t.Run(method, func(t *testing.T) {
			var gotAcceptEncoding, gotSetting string

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotAcceptEncoding = r.Header.Get("Accept-Encoding")
				gotSetting = r.URL.Query().Get("enable_http_compression")

				var buf bytes.Buffer
				enc := newEncoder(&buf)
				_, _ = io.WriteString(enc, payload)
				_ = enc.Close()

				w.Header().Set("Content-Encoding", method)
				_, _ = w.Write(buf.Bytes())
			}, func(cfg *config.ClickHouseConfig) {
				cfg.Compression = method
			})

			stream, err := client.Query(context.Background(), "SELECT n, s FROM t")
			require.NoError(t, err)

			assert.Equal(t, payload, readAll(t, stream))
			assert.Equal(t, method, gotAcceptEncoding)
			assert.Equal(t, "1", gotSetting)
		})
	}

	t.Run("none sends no compression setting", func(t *testing.T) {
		var gotSetting string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotSetting = r.URL.Query().Get("enable_http_compression")
			_, _ = io.WriteString(w, payload)
		})

		stream, err := client.Query(context.Background(), "SELECT 1")
		require.NoError(t, err)
		assert.Equal(t, payload, readAll(t, stream))
		assert.Empty(t, gotSetting)
	})

	t.Run("unknown encoding", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Encoding", "xz")
			_, _ = io.WriteString(w, "garbage")
		})

		_, err := client.Query(context.Background(), "SELECT 1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported content encoding")
	})
}

func TestClient_Ping(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/ping" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, "Ok.\n")
	})

	require.NoError(t, client.Ping(context.Background()))
	assert.True(t, client.IsHealthy(context.Background()))
	assert.Equal(t, int32(2), hits.Load())

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Error(t, down.Ping(context.Background()))
	assert.False(t, down.IsHealthy(context.Background()))
}
