package main

import (
	"bufio"
	"bytes"
	"chat-relay/domain"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	Username      string `env:"CHAT_USERNAME,required=true"`
	Password      string `env:"CHAT_PASSWORD,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the session lifecycle: login over HTTP, then a websocket
// session with a reader goroutine rendering incoming frames and the main
// loop forwarding stdin lines.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Exchange credentials for a session token.
	token, err := login(ctx, config)
	if err != nil {
		return exitRuntime, err
	}

	// 4. Open the websocket session.
	wsURL := url.URL{
		Scheme:   "ws",
		Host:     config.ServerAddress,
		Path:     "/ws",
		RawQuery: url.Values{"token": {token}}.Encode(),
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	header := fmt.Sprintf(" Connected as %s to %s (Ctrl+C to quit) ", config.Username, config.ServerAddress)
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))
	fmt.Println("Type '@identity message' for direct, '#group message' for group.")

	// 5. Reader goroutine renders server frames until the connection dies.
	done := make(chan error, 1)
	go func() { done <- receive(conn) }()

	// 6. Forward stdin lines as frames.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := sendLine(conn, scanner.Text()); err != nil {
				log.Error("Sending failed", "error", err)
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Stopping client...")
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		return exitOK, nil
	case err := <-done:
		if err != nil {
			return exitRuntime, err
		}
		return exitOK, nil
	}
}

func login(ctx context.Context, config Config) (string, error) {
	body, err := json.Marshal(map[string]string{
		"username": config.Username,
		"password": config.Password,
	})
	if err != nil {
		return "", err
	}

	loginURL := fmt.Sprintf("http://%s/login", config.ServerAddress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login rejected with status %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	return payload.Token, nil
}

// sendLine parses one stdin line into a frame. '@bob hello' is a direct
// message, '#team hello' a group message.
func sendLine(conn *websocket.Conn, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	target, text, found := strings.Cut(line, " ")
	if !found || len(target) < 2 || (target[0] != '@' && target[0] != '#') {
		fmt.Println(color.Yellow.Render("Usage: '@identity message' or '#group message'"))
		return nil
	}

	frame := map[string]string{"text": text}
	if target[0] == '@' {
		frame["type"] = string(domain.FrameDirect)
		frame["recipient"] = target[1:]
	} else {
		frame["type"] = string(domain.FrameGroup)
		frame["group"] = target[1:]
	}
	return conn.WriteJSON(frame)
}

func receive(conn *websocket.Conn) error {
	for {
		var frame struct {
			Type domain.FrameType `json:"type"`
			Data json.RawMessage  `json:"data"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}

		switch frame.Type {
		case domain.FrameMessage:
			var payload domain.MessagePayload
			if err := json.Unmarshal(frame.Data, &payload); err != nil {
				continue
			}
			sender := color.New(color.FgCyan).Render(payload.Sender)
			fmt.Printf("[%s] %s: %s\n", time.Now().Format(time.TimeOnly), sender, payload.Text)
		case domain.FrameStatus:
			var snapshot domain.Snapshot
			if err := json.Unmarshal(frame.Data, &snapshot); err != nil {
				continue
			}
			renderStatus(snapshot)
		}
	}
}

// renderStatus prints the presence snapshot as a compact table.
func renderStatus(snapshot domain.Snapshot) {
	identities := make([]string, 0, len(snapshot))
	for identity := range snapshot {
		identities = append(identities, identity)
	}
	sort.Strings(identities)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Identity", "Presence"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, identity := range identities {
		state := string(snapshot[identity])
		if snapshot[identity] == domain.Online {
			state = color.Green.Render(state)
		} else {
			state = color.FgDarkGray.Render(state)
		}
		table.Append([]string{identity, state})
	}
	table.Render()
}
