package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ysxemail003-cpu/ipv6conf/internal/api"
)

// RoomsTableView renders the room directory listing.
func RoomsTableView(rooms []api.Room) string {
	if len(rooms) == 0 {
		return MutedStyle.Render("No active rooms")
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Color.Header = text.Colors{text.FgCyan, text.Bold}
	t.AppendHeader(table.Row{"#", "Room ID", "Name", "Participants"})
	for i, room := range rooms {
		t.AppendRow(table.Row{
			i + 1,
			room.ID,
			truncateString(room.Name, 30),
			len(room.Users),
		})
	}
	return t.Render()
}

// RenderRoomsTable outputs the table directly to stdout
func RenderRoomsTable(rooms []api.Room) {
	fmt.Println(RoomsTableView(rooms))
}

// ServerInfoView renders the server probe result.
func ServerInfoView(info *api.ServerInfo, rtt time.Duration) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"IPv6 Address", info.IPv6Address},
		{"Port", info.Port},
		{"Round Trip", rtt.Round(time.Millisecond).String()},
	})
	reachable := IconSuccess + " reachable"
	if strings.HasPrefix(info.IPv6Address, "fe80:") || info.IPv6Address == "::1" {
		reachable = IconWarning + " link-local or loopback only"
	}
	t.AppendRow(table.Row{"IPv6 Scope", reachable})
	return t.Render()
}
