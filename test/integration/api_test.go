package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// APISuite drives a running service over HTTP. It needs Postgres and Redis
// behind the server, so it only runs when TEST_SERVER_URL is set or
// START_TEST_SERVER=true.
type APISuite struct {
	suite.Suite
	serverCmd    *exec.Cmd
	serverCancel func()
	client       *http.Client
	baseURL      string
}

func (s *APISuite) SetupSuite() {
	s.client = &http.Client{Timeout: 5 * time.Second}

	if base := os.Getenv("TEST_SERVER_URL"); base != "" {
		s.baseURL = base
		return
	}
	if os.Getenv("START_TEST_SERVER") != "true" {
		s.T().Skip("set TEST_SERVER_URL or START_TEST_SERVER=true to run API tests")
	}

	cmd, cancel, err := startServerProcess()
	if err != nil {
		s.T().Fatalf("failed to start server subprocess: %v", err)
	}
	s.serverCmd = cmd
	s.serverCancel = cancel

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8081"
	}
	s.baseURL = "http://localhost:" + port
	timeoutSecs := 60
	if v := os.Getenv("TEST_SERVER_STARTUP_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeoutSecs = n
		}
	}
	if ok := waitForServerHealthy(s.client, s.baseURL, timeoutSecs); !ok {
		_ = cmd.Process.Kill()
		s.T().Fatal("server did not become healthy in time")
	}
}

// startServerProcess runs cmd/server from the repository root.
func startServerProcess() (*exec.Cmd, func(), error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}
	repoRoot := filepath.Join(wd, "..", "..")
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/server")
	cmd.Dir = repoRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, nil, err
	}
	return cmd, cancel, nil
}

func waitForServerHealthy(client *http.Client, baseURL string, timeoutSecs int) bool {
	fmt.Fprintf(os.Stdout, "Waiting up to %ds for test server to become healthy...\n", timeoutSecs)
	deadline := time.Now().Add(time.Duration(timeoutSecs) * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return false
}

func (s *APISuite) TearDownSuite() {
	if s.serverCmd == nil || s.serverCmd.Process == nil {
		return
	}
	if s.serverCancel != nil {
		s.serverCancel()
	} else {
		_ = s.serverCmd.Process.Signal(os.Interrupt)
	}
	done := make(chan struct{})
	go func() {
		_ = s.serverCmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		_ = s.serverCmd.Process.Kill()
	}
}

func (s *APISuite) do(method, path string, body any, userID int64) (*http.Response, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.baseURL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	}
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

// uniqueID keeps reruns against the same database from colliding.
func uniqueID() int64 { return time.Now().UnixNano() % 1_000_000_000 }

func (s *APISuite) TestHealthCheck() {
	resp, body := s.do(http.MethodGet, "/health", nil, 0)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("healthy", body["status"])
}

func (s *APISuite) TestUnknownShopIsNotFound() {
	resp, _ := s.do(http.MethodGet, "/api/v1/shops/"+strconv.FormatInt(9_000_000_000+uniqueID(), 10), nil, 0)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *APISuite) TestSeckillSellsExactlyTheStock() {
	voucherID := uniqueID()
	resp, _ := s.do(http.MethodPost, "/api/v1/vouchers/seckill", map[string]any{
		"voucher_id": voucherID,
		"stock":      3,
		"begin_time": time.Now().Add(-time.Minute).UTC().Format(time.RFC3339),
		"end_time":   time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	}, 0)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	path := "/api/v1/voucher-orders/seckill/" + strconv.FormatInt(voucherID, 10)
	var (
		mu     sync.Mutex
		placed int
		wg     sync.WaitGroup
	)
	for u := int64(1); u <= 20; u++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			resp, _ := s.do(http.MethodPost, path, nil, voucherID*100+user)
			if resp.StatusCode == http.StatusOK {
				mu.Lock()
				placed++
				mu.Unlock()
			}
		}(u)
	}
	wg.Wait()
	s.Equal(3, placed)

	resp, body := s.do(http.MethodPost, path, nil, voucherID*100+99)
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("sold_out", body["rejection"])
}

func (s *APISuite) TestSeckillOnePerUser() {
	voucherID := uniqueID() + 1
	resp, _ := s.do(http.MethodPost, "/api/v1/vouchers/seckill", map[string]any{
		"voucher_id": voucherID,
		"stock":      10,
		"begin_time": time.Now().Add(-time.Minute).UTC().Format(time.RFC3339),
	}, 0)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	path := "/api/v1/voucher-orders/seckill/" + strconv.FormatInt(voucherID, 10)
	resp, body := s.do(http.MethodPost, path, nil, 42)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.NotEmpty(body["order_id"])

	resp, body = s.do(http.MethodPost, path, nil, 42)
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("already_purchased", body["rejection"])
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}
