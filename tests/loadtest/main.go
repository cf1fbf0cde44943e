package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	json "github.com/goccy/go-json"
)

type flags struct {
	BaseURL  string        `help:"Server address." default:"http://127.0.0.1:8000"`
	Workers  int           `help:"Concurrent clients." default:"20"`
	Duration time.Duration `help:"Length of each phase." default:"10s"`
	Token    string        `help:"Bearer token for the owner-scoped endpoints." env:"LOADTEST_TOKEN"`
}

var searchTerms = []string{"beach", "dog", "sunset", "mountain", "city", "food"}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

type client struct {
	http  *http.Client
	base  string
	token string

	mu    sync.Mutex
	names []string
}

func main() {
	var cli flags
	kong.Parse(&cli, kong.Name("loadtest"), kong.Description("Drives mixed traffic against a running gallery server."))

	c := &client{
		base:  strings.TrimRight(cli.BaseURL, "/"),
		token: cli.Token,
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        200,
				MaxIdleConnsPerHost: 200,
				IdleConnTimeout:     30 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   2 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
	}

	fmt.Println("=== Gallery Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s | Authenticated: %t\n\n", cli.Workers, cli.Duration, c.token != "")

	fmt.Print("Waiting for server... ")
	if !c.waitReady() {
		fmt.Println("FAILED: server not responding")
		return
	}
	fmt.Println("OK")

	// Guests hit their lifetime cap quickly, so 429s are counted as expected.
	fmt.Println("\n--- Phase 1: Uploads (POST /upload) ---")
	runPhase(cli.Workers, cli.Duration, func(rng *rand.Rand) result {
		return c.upload(rng)
	})

	fmt.Println("\n--- Phase 2: Read-heavy (10% upload, 60% image, 30% gallery) ---")
	runPhase(cli.Workers, cli.Duration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return c.upload(rng)
		case r < 0.70:
			return c.image(rng)
		case r < 0.85:
			return c.get("GET /images", "/images?limit=20", true)
		default:
			return c.get("GET /search", "/search?tag="+searchTerms[rng.Intn(len(searchTerms))], true)
		}
	})
}

func (c *client) waitReady() bool {
	for i := 0; i < 30; i++ {
		resp, err := c.http.Get(c.base + "/health")
		if err == nil {
			drain(resp)
			return true
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

func (c *client) upload(rng *rand.Rand) result {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, _ := form.CreateFormFile("file", fmt.Sprintf("load_%d.jpg", rng.Intn(1_000_000)))
	payload := make([]byte, 16<<10)
	rng.Read(payload)
	part.Write(payload)
	form.Close()

	req, _ := http.NewRequest(http.MethodPost, c.base+"/upload", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{"POST /upload", 0, lat, true}
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusOK {
		var out struct {
			ImageURL string `json:"image_url"`
		}
		if json.NewDecoder(resp.Body).Decode(&out) == nil && out.ImageURL != "" {
			c.remember(path.Base(out.ImageURL))
		}
	}
	ok := resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusTooManyRequests
	return result{"POST /upload", resp.StatusCode, lat, !ok}
}

func (c *client) image(rng *rand.Rand) result {
	c.mu.Lock()
	if len(c.names) == 0 {
		c.mu.Unlock()
		return c.get("GET /", "/", false)
	}
	name := c.names[rng.Intn(len(c.names))]
	c.mu.Unlock()

	return c.get("GET /images/{filename}", "/images/"+name, false)
}

func (c *client) get(endpoint, target string, auth bool) result {
	req, _ := http.NewRequest(http.MethodGet, c.base+target, nil)
	if auth {
		c.authorize(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	drain(resp)

	ok := resp.StatusCode == http.StatusOK
	if auth && c.token == "" {
		ok = resp.StatusCode == http.StatusUnauthorized
	}
	return result{endpoint, resp.StatusCode, lat, !ok}
}

func (c *client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *client) remember(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.names) < 1000 {
		c.names = append(c.names, name)
	}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func runPhase(workers int, duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	stop := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(rng)
				}
			}
		}(time.Now().UnixNano() + int64(i))
	}

	all := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := all[r.endpoint]
			if !ok {
				s = &stats{}
				all[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(all, duration)
}

func printResults(all map[string]*stats, duration time.Duration) {
	var totalOps, totalErrors int64

	endpoints := make([]string, 0, len(all))
	for ep := range all {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-24s %8s %6s %10s %10s %10s\n", "Endpoint", "Reqs", "Errs", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 74))

	for _, ep := range endpoints {
		s := all[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool { return s.latencies[i] < s.latencies[j] })
		fmt.Printf("  %-24s %8d %6d %10s %10s %10s\n", ep, s.count, s.errors,
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	if totalOps == 0 {
		return
	}
	fmt.Println("  " + strings.Repeat("-", 74))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, float64(totalOps)/duration.Seconds())
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
