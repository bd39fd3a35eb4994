package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hrdesk/internal/auth"
)

const heartbeatEvery = 30 * time.Second

// credentials are what the server hands out once at registration.
type credentials struct {
	DeviceID  int64  `json:"device_id"`
	DeviceKey string `json:"device_key"`
}

type kiosk struct {
	baseURL string
	creds   credentials
	http    *http.Client
}

func main() {
	_ = godotenv.Load()

	controllerURL := strings.TrimRight(os.Getenv("CONTROLLER_URL"), "/") // e.g., http://192.168.1.10:8080
	if controllerURL == "" {
		log.Fatal("❌ CONTROLLER_URL not set. Example: CONTROLLER_URL=http://192.168.1.10:8080 KIOSK_TOKEN=... ./kiosk")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	k := &kiosk{baseURL: controllerURL, http: &http.Client{Timeout: 10 * time.Second}}

	credPath := os.Getenv("KIOSK_CREDENTIALS")
	if credPath == "" {
		usr, err := user.Current()
		if err != nil {
			log.Fatalf("❌ cannot resolve home directory: %v", err)
		}
		credPath = filepath.Join(usr.HomeDir, ".hrdesk-kiosk", "credentials.json")
	}

	creds, err := loadCredentials(credPath)
	switch {
	case err == nil:
		log.Printf("🔑 Using kiosk credentials from %s (device %d)", credPath, creds.DeviceID)
	case errors.Is(err, os.ErrNotExist):
		creds, err = k.register(ctx)
		if err != nil {
			log.Fatalf("❌ register failed: %v", err)
		}
		if err := saveCredentials(credPath, creds); err != nil {
			log.Fatalf("❌ saving credentials: %v", err)
		}
		log.Printf("✅ Registered kiosk as device %d", creds.DeviceID)
	default:
		log.Fatalf("❌ reading %s: %v", credPath, err)
	}
	k.creds = *creds

	go k.heartbeats(ctx)

	fmt.Println("Scan a badge (one code per line):")
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			badge := strings.TrimSpace(line)
			if badge == "" {
				continue
			}
			fmt.Println(k.punch(ctx, badge))
		}
	}
}

func (k *kiosk) register(ctx context.Context) (*credentials, error) {
	token := os.Getenv("KIOSK_TOKEN")
	if token == "" {
		return nil, errors.New("KIOSK_TOKEN not set; create one with POST /api/v1/devices/tokens")
	}
	hostname, _ := os.Hostname()
	name := os.Getenv("KIOSK_NAME")
	if name == "" {
		name = hostname
	}
	payload := map[string]string{
		"token":    token,
		"name":     name,
		"location": os.Getenv("KIOSK_LOCATION"),
		"hostname": hostname,
		"os":       detectOS(),
	}
	var out credentials
	if err := k.post(ctx, "/devices/register", payload, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (k *kiosk) heartbeats(ctx context.Context) {
	t := time.NewTicker(heartbeatEvery)
	defer t.Stop()
	for {
		if err := k.post(ctx, "/devices/heartbeat", struct{}{}, true, nil); err != nil && ctx.Err() == nil {
			log.Printf("⚠️ heartbeat failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (k *kiosk) punch(ctx context.Context, badge string) string {
	var out struct {
		Action string `json:"action"`
		Member struct {
			Name string `json:"name"`
		} `json:"member"`
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := k.post(ctx, "/devices/punch", map[string]string{"badge_code": badge}, true, &out); err != nil {
		return "❌ " + err.Error()
	}
	verb := "checked in"
	if out.Action == "check_out" {
		verb = "checked out"
	}
	return fmt.Sprintf("✅ %s %s at %s (%s)", out.Member.Name, verb, time.Now().Format("15:04"), out.Data.Status)
}

// post sends body as JSON and decodes a 2xx response into out. Error
// responses surface the server's "error" message.
func (k *kiosk) post(ctx context.Context, path string, body any, signed bool, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if signed {
		req.Header.Set(auth.DeviceIDHeader, strconv.FormatInt(k.creds.DeviceID, 10))
		req.Header.Set(auth.DeviceKeyHeader, k.creds.DeviceKey)
	}

	resp, err := k.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s (%d)", e.Error, resp.StatusCode)
		}
		return fmt.Errorf("server responded with %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func loadCredentials(path string) (*credentials, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if c.DeviceID == 0 || c.DeviceKey == "" {
		return nil, fmt.Errorf("incomplete credentials in %s", path)
	}
	return &c, nil
}

func saveCredentials(path string, c *credentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

func detectOS() string {
	if data, err := os.ReadFile("/etc/os-release"); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.HasPrefix(line, "PRETTY_NAME=") {
				return strings.Trim(line[len("PRETTY_NAME="):], `"`)
			}
		}
	}
	return runtime.GOOS
}
