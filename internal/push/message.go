package push

import (
	"strconv"
	"time"
)

// Defaults applied when a request carries an empty title or body.
const (
	DefaultTitle = "New Message"
	DefaultBody  = "You have a new message"
)

const (
	androidIcon  = "ic_notification"
	androidColor = "#007AFF"
)

// Message is the wire envelope accepted by the delivery API: one shared
// title/body core plus per-platform extensions.
type Message struct {
	Token        string            `json:"token"`
	Notification Notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	APNS         APNSConfig        `json:"apns"`
	Android      AndroidConfig     `json:"android"`
}

type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type APNSConfig struct {
	Payload APNSPayload `json:"payload"`
}

type APNSPayload struct {
	APS APS `json:"aps"`
}

type APS struct {
	Alert Alert  `json:"alert"`
	Badge int    `json:"badge"`
	Sound string `json:"sound"`
}

type Alert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type AndroidConfig struct {
	Notification AndroidNotification `json:"notification"`
	Priority     string              `json:"priority"`
}

type AndroidNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Sound string `json:"sound"`
}

// BuildMessage assembles the full envelope for one target token.
// Empty title/body fall back to the defaults, and the timestamp is injected
// into the data bag as epoch milliseconds (ts zero = now). The caller's data
// map is copied, never mutated.
func BuildMessage(token, title, body string, data map[string]string, ts time.Time) *Message {
	if title == "" {
		title = DefaultTitle
	}
	if body == "" {
		body = DefaultBody
	}
	if ts.IsZero() {
		ts = time.Now()
	}

	bag := make(map[string]string, len(data)+1)
	for k, v := range data {
		bag[k] = v
	}
	bag["timestamp"] = strconv.FormatInt(ts.UnixMilli(), 10)

	return &Message{
		Token:        token,
		Notification: Notification{Title: title, Body: body},
		Data:         bag,
		APNS: APNSConfig{
			Payload: APNSPayload{
				APS: APS{
					Alert: Alert{Title: title, Body: body},
					Badge: 1,
					Sound: "default",
				},
			},
		},
		Android: AndroidConfig{
			Notification: AndroidNotification{
				Title: title,
				Body:  body,
				Icon:  androidIcon,
				Color: androidColor,
				Sound: "default",
			},
			Priority: "high",
		},
	}
}
