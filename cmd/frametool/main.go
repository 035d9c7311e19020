package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go-pusher-gateway/internal/protocol"
)

// frametool 用于手工调试 Pusher 帧：
//
//	echo '{"event":"pusher:ping"}' | frametool -mode decode
//	echo '{"channel":"news"}' | frametool -mode encode -event pusher:subscribe
//	frametool -mode error -code 4009 -message "Connection is unauthorized" < /dev/null
func main() {
	mode := flag.String("mode", "decode", "Mode: 'decode', 'encode' or 'error'")
	event := flag.String("event", "", "Event name for encode mode")
	channel := flag.String("channel", "", "Channel for encode mode")
	code := flag.Int("code", protocol.CodeInvalidMessageFormat, "Error code for error mode")
	message := flag.String("message", protocol.MessageInvalidMessageFormat, "Error message for error mode")
	flag.Parse()

	inputData, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
		os.Exit(1)
	}

	inputStr := strings.TrimSpace(string(inputData))

	switch *mode {
	case "decode":
		decode(inputStr)
	case "encode":
		encode(inputStr, *event, *channel)
	case "error":
		fmt.Println(string(protocol.EncodeError(protocol.ErrorPayload{Code: *code, Message: *message})))
	default:
		fmt.Fprintf(os.Stderr, "Invalid mode: %s. Use 'decode', 'encode' or 'error'.\n", *mode)
		os.Exit(1)
	}
}

// 解析一帧入站消息，输出路由结果；解析失败时输出服务端会返回的错误帧
func decode(input string) {
	msg, err := protocol.ParseMessage([]byte(input))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing frame: %v\n", err)
		fmt.Println(string(protocol.EncodeError(protocol.Classify(err).Payload())))
		os.Exit(1)
	}

	jsonOutput, err := json.MarshalIndent(describe(msg), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling to JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(jsonOutput))
}

func describe(msg *protocol.InboundMessage) map[string]any {
	out := map[string]any{
		"event": msg.Event,
		"route": protocol.RouteOf(msg.Event).String(),
		"data":  msg.DataOrEmpty(),
	}
	if msg.Channel != nil {
		out["channel"] = *msg.Channel
	}
	return out
}

// 将 stdin 中的 JSON 作为 data 编码成出站帧
func encode(input, event, channel string) {
	if event == "" {
		fmt.Fprintln(os.Stderr, "Missing -event for encode mode")
		os.Exit(1)
	}

	var data any
	if input != "" {
		if err := json.Unmarshal([]byte(input), &data); err != nil {
			fmt.Fprintf(os.Stderr, "Error unmarshaling JSON data: %v\nInput: %s\n", err, input)
			os.Exit(1)
		}
	}
	fmt.Println(string(protocol.EncodeFrame(event, data, channel)))
}
