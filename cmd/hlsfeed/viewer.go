package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/RavensCloud/hlsfeed"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	likeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF3B5C"))
	urlStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7D7D"))
	statusStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#FFB020"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5C5C5C"))
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(1, 2)
)

// loadedMsg is sent when a feed load finishes.
type loadedMsg struct {
	err error
}

// likedMsg is sent after a like attempt.
type likedMsg struct {
	id  int
	err error
}

// playedMsg is sent after the external player was started.
type playedMsg struct {
	filename string
	err      error
}

// viewer renders the feed one video at a time. Keys stand in for swipes.
type viewer struct {
	feed    *hlsfeed.Feed
	player  string
	logger  logrus.FieldLogger
	spinner spinner.Model
	state   hlsfeed.State
	status  string
}

func newViewer(feed *hlsfeed.Feed, player string, logger logrus.FieldLogger) viewer {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = likeStyle

	return viewer{
		feed:    feed,
		player:  player,
		logger:  logger,
		spinner: s,
		state:   feed.Snapshot(),
	}
}

func (m viewer) Init() tea.Cmd {
	return tea.Batch(m.load(), m.spinner.Tick)
}

// load flips the feed into loading before the command is handed to the
// runtime so the next View already shows the spinner.
func (m viewer) load() tea.Cmd {
	done := m.feed.LoadAsync(context.Background())
	return func() tea.Msg {
		return loadedMsg{err: <-done}
	}
}

func (m viewer) like(id int) tea.Cmd {
	feed := m.feed
	return func() tea.Msg {
		return likedMsg{id: id, err: feed.Like(context.Background(), id)}
	}
}

func (m viewer) play(v hlsfeed.Video) tea.Cmd {
	player := m.player
	return func() tea.Msg {
		c := exec.Command(player, v.StreamURL)
		if err := c.Start(); err != nil {
			return playedMsg{filename: v.Filename, err: err}
		}
		go c.Wait()
		return playedMsg{filename: v.Filename}
	}
}

func (m viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.feed.Navigate(hlsfeed.Previous)
		case "down", "j":
			m.feed.Navigate(hlsfeed.Next)
		case "l", " ":
			if v, ok := m.state.Current(); ok && !m.state.Loading {
				cmd = m.like(v.ID)
			}
		case "p", "enter":
			if v, ok := m.state.Current(); ok {
				cmd = m.play(v)
			}
		case "r":
			m.status = ""
			cmd = tea.Batch(m.load(), m.spinner.Tick)
		}

	case loadedMsg:
		switch {
		case errors.Is(msg.err, hlsfeed.ErrSuperseded):
		case msg.err != nil:
			m.status = "could not load videos (press r to retry)"
		default:
			m.status = ""
		}

	case likedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("like for #%d did not go through", msg.id)
		} else {
			m.status = ""
		}

	case playedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("cannot start %s: %v", m.player, msg.err)
		} else {
			m.logger.WithField("filename", msg.filename).Info("playing video")
		}

	case spinner.TickMsg:
		if m.state.Loading {
			m.spinner, cmd = m.spinner.Update(msg)
		}
	}

	m.state = m.feed.Snapshot()
	return m, cmd
}

func (m viewer) View() string {
	if m.state.Loading {
		return fmt.Sprintf("\n  %s Loading videos...\n", m.spinner.View())
	}

	var b strings.Builder
	v, ok := m.state.Current()
	if !ok {
		b.WriteString("\n  No videos.\n")
	} else {
		card := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(v.Filename),
			urlStyle.Render(v.StreamURL),
			"",
			likeStyle.Render(fmt.Sprintf("♥ %d", v.Likes))+
				helpStyle.Render(fmt.Sprintf("   %d/%d", m.state.Cursor+1, len(m.state.Records))),
		)
		b.WriteString(cardStyle.Render(card))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/k prev • ↓/j next • l like • p play • r reload • q quit"))
	return b.String()
}
