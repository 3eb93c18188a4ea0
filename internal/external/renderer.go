package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tessera/internal/models"
)

// RendererClient calls the PDF ticket rendering service.
type RendererClient struct {
	baseURL    string
	httpClient *http.Client
}

type RendererConfig struct {
	BaseURL string
	Timeout time.Duration
}

type renderTicket struct {
	Code       string `json:"code"`
	Section    string `json:"section"`
	Row        string `json:"row"`
	SeatNumber int    `json:"seat_number"`
}

type renderRequest struct {
	OrderID    int64          `json:"order_id"`
	EventTitle string         `json:"event_title"`
	BuyerName  string         `json:"buyer_name"`
	Tickets    []renderTicket `json:"tickets"`
}

func NewRendererClient(cfg RendererConfig) *RendererClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &RendererClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// RenderTickets produces one PDF covering every ticket of the order.
func (rc *RendererClient) RenderTickets(order *models.Order, eventTitle string) ([]byte, error) {
	reqBody := renderRequest{
		OrderID:    order.ID,
		EventTitle: eventTitle,
		BuyerName:  order.BuyerName,
	}
	for _, t := range order.Tickets {
		reqBody.Tickets = append(reqBody.Tickets, renderTicket{
			Code:       t.Code,
			Section:    t.Section,
			Row:        t.Row,
			SeatNumber: t.SeatNumber,
		})
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := rc.httpClient.Post(rc.baseURL+"/api/v1/tickets/pdf", "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to render tickets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return pdf, nil
}
