package teams

import (
	"github.com/finops/ffc-billing/internal/domain/notification"
	"github.com/finops/ffc-billing/internal/types"
)

const (
	cardVersion     = "1.4"
	cardContentType = "application/vnd.microsoft.card.adaptive"
	cardSchema      = "http://adaptivecards.io/schemas/adaptive-card.json"
)

type message struct {
	Type        string       `json:"type"`
	Attachments []attachment `json:"attachments"`
}

type attachment struct {
	ContentType string       `json:"contentType"`
	Content     adaptiveCard `json:"content"`
}

type adaptiveCard struct {
	Schema  string            `json:"$schema"`
	Type    string            `json:"type"`
	Version string            `json:"version"`
	Body    []any             `json:"body"`
	MSTeams map[string]string `json:"msteams"`
}

type textBlock struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Wrap   bool   `json:"wrap,omitempty"`
	Size   string `json:"size,omitempty"`
	Weight string `json:"weight,omitempty"`
	Color  string `json:"color,omitempty"`
}

type column struct {
	Type  string      `json:"type"`
	Width string      `json:"width"`
	Items []textBlock `json:"items"`
}

type columnSet struct {
	Type    string   `json:"type"`
	Columns []column `json:"columns"`
}

type levelStyle struct {
	icon  string
	color string
}

var levelStyles = map[types.NotificationLevel]levelStyle{
	types.NotificationLevelSuccess:    {icon: "\U0001F44D", color: "Accent"},
	types.NotificationLevelInProgress: {icon: "☢", color: "Warning"},
	types.NotificationLevelError:      {icon: "\U0001F525", color: "Attention"},
}

func buildMessage(n *notification.Notification) message {
	style, ok := levelStyles[n.Level]
	if !ok {
		style = levelStyle{color: "Default"}
	}

	title := n.Title
	if style.icon != "" {
		title = style.icon + " " + title
	}

	body := []any{
		textBlock{Type: "TextBlock", Text: title, Size: "Large", Weight: "Bolder", Color: style.color},
		textBlock{Type: "TextBlock", Text: n.Text, Wrap: true, Size: "Small", Color: "Default"},
	}
	if n.Details != nil {
		body = append(body, buildColumnSet(n.Details))
	}

	return message{
		Type: "message",
		Attachments: []attachment{{
			ContentType: cardContentType,
			Content: adaptiveCard{
				Schema:  cardSchema,
				Type:    "AdaptiveCard",
				Version: cardVersion,
				Body:    body,
				MSTeams: map[string]string{"width": "Full"},
			},
		}},
	}
}

// buildColumnSet renders the table column by column, rows alternate colors
func buildColumnSet(d *notification.Details) columnSet {
	columns := make([]column, len(d.Header))
	for i, title := range d.Header {
		columns[i] = column{
			Type:  "Column",
			Width: "auto",
			Items: []textBlock{{Type: "TextBlock", Text: title, Weight: "Bolder", Wrap: true}},
		}
	}

	for rowIdx, row := range d.Rows {
		color := "Default"
		if rowIdx%2 == 1 {
			color = "Accent"
		}
		for colIdx, value := range row {
			if colIdx >= len(columns) {
				break
			}
			columns[colIdx].Items = append(columns[colIdx].Items, textBlock{
				Type:  "TextBlock",
				Text:  value,
				Wrap:  true,
				Color: color,
			})
		}
	}

	return columnSet{Type: "ColumnSet", Columns: columns}
}
