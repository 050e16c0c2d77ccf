package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// FetchRooms reads the room listing served at baseURL + "/rooms".
func FetchRooms(ctx context.Context, httpClient *http.Client, baseURL string) ([]server.RoomInfo, error) {
	url := strings.TrimRight(baseURL, "/") + "/rooms"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}

	var body server.RoomsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return body.Rooms, nil
}

// RenderRooms writes rooms as a borderless two column table.
func RenderRooms(w io.Writer, rooms []server.RoomInfo) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Room", "Members"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	table.AppendBulk(lo.Map(rooms, func(r server.RoomInfo, _ int) []string {
		return []string{r.Name, strconv.Itoa(r.Members)}
	}))
	table.Render()
}
