package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fjod/go_cart/gomarketplace/internal/domain"
	"github.com/fjod/go_cart/gomarketplace/internal/service"
)

const mutationTimeout = 5 * time.Second

type pane int

const (
	catalogPane pane = iota
	cartPane
)

// cartChangedMsg carries a store notification into the update loop.
type cartChangedMsg []domain.CartItem

type mutationResult struct {
	action string
	id     string
	err    error
}

type model struct {
	store   *service.CartStore
	catalog []domain.Product
	items   []domain.CartItem
	focus   pane
	cursor  [2]int
	status  string
}

func initialModel(store *service.CartStore, catalog []domain.Product) model {
	return model{
		store:   store,
		catalog: catalog,
		items:   store.Products(),
		status:  "Ready",
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			if m.focus == catalogPane {
				m.focus = cartPane
			} else {
				m.focus = catalogPane
			}
		case "up", "k":
			if m.cursor[m.focus] > 0 {
				m.cursor[m.focus]--
			}
		case "down", "j":
			if m.cursor[m.focus] < m.paneLen()-1 {
				m.cursor[m.focus]++
			}
		case "enter", "a":
			if m.focus == catalogPane && len(m.catalog) > 0 {
				p := m.catalog[m.cursor[catalogPane]]
				return m, m.mutateCmd("add", p.ID, func(ctx context.Context) error {
					_, err := m.store.AddToCart(ctx, p)
					return err
				})
			}
		case "+", "=":
			if id, ok := m.selectedLine(); ok {
				return m, m.mutateCmd("increment", id, func(ctx context.Context) error {
					_, err := m.store.Increment(ctx, id)
					return err
				})
			}
		case "-":
			if id, ok := m.selectedLine(); ok {
				return m, m.mutateCmd("decrement", id, func(ctx context.Context) error {
					_, err := m.store.Decrement(ctx, id)
					return err
				})
			}
		}
	case cartChangedMsg:
		m.items = msg
		if m.cursor[cartPane] >= len(m.items) {
			m.cursor[cartPane] = max(len(m.items)-1, 0)
		}
	case mutationResult:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s %s failed: %v", msg.action, msg.id, msg.err)
		} else {
			m.status = fmt.Sprintf("%s %s", msg.action, msg.id)
		}
	}
	return m, nil
}

func (m model) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "GoMarketplace cart")
	fmt.Fprintln(b, "")

	fmt.Fprintln(b, header("Catalog", m.focus == catalogPane))
	for i, p := range m.catalog {
		fmt.Fprintf(b, " %s %-24s %8.2f\n", m.marker(catalogPane, i), p.Title, p.Price)
	}
	fmt.Fprintln(b, "")

	fmt.Fprintln(b, header("Cart", m.focus == cartPane))
	if len(m.items) == 0 {
		fmt.Fprintln(b, "   (empty)")
	}
	for i, item := range m.items {
		fmt.Fprintf(b, " %s %-24s x%-3d %8.2f\n", m.marker(cartPane, i), item.Title, item.Quantity, item.Subtotal())
	}
	count, total := domain.Totals(m.items)
	fmt.Fprintf(b, "   %d item(s), total %.2f\n", count, total)
	fmt.Fprintln(b, "")

	fmt.Fprintf(b, "Status: %s\n", m.status)
	fmt.Fprintln(b, "\nControls: tab switch pane, up/down select, enter add, +/- change quantity, q quit")
	return b.String()
}

func (m model) mutateCmd(action, id string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		return mutationResult{action: action, id: id, err: fn(ctx)}
	}
}

func (m model) selectedLine() (string, bool) {
	if m.focus != cartPane || len(m.items) == 0 {
		return "", false
	}
	return m.items[m.cursor[cartPane]].ID, true
}

func (m model) paneLen() int {
	if m.focus == catalogPane {
		return len(m.catalog)
	}
	return len(m.items)
}

func (m model) marker(p pane, i int) string {
	if m.focus == p && m.cursor[p] == i {
		return ">"
	}
	return " "
}

func header(title string, focused bool) string {
	if focused {
		return title + ":"
	}
	return title
}
