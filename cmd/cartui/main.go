package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fjod/go_cart/gomarketplace/internal/domain"
	"github.com/fjod/go_cart/gomarketplace/internal/service"
	"github.com/fjod/go_cart/gomarketplace/internal/storage"
	"github.com/fjod/go_cart/gomarketplace/pkg/logger"
	"github.com/sirupsen/logrus"
)

var demoCatalog = []domain.Product{
	{ID: "1", Title: "Office chair", ImageURL: "https://example.com/chair.jpg", Price: 1900.99},
	{ID: "2", Title: "Walking shoes", ImageURL: "https://example.com/shoes.jpg", Price: 179.9},
	{ID: "3", Title: "T-shirt", ImageURL: "https://example.com/tshirt.jpg", Price: 49.9},
	{ID: "4", Title: "Backpack", ImageURL: "https://example.com/backpack.jpg", Price: 229.5},
}

type options struct {
	driver  string
	dbPath  string
	logFile string
}

func main() {
	var opts options
	flag.StringVar(&opts.driver, "driver", storage.DriverSQLite, "storage driver: sqlite|memory")
	flag.StringVar(&opts.dbPath, "db", "cart.db", "sqlite database path")
	flag.StringVar(&opts.logFile, "log", "", "write logs to this file instead of discarding them")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	out, closeLog, err := openLog(opts.logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	log := logger.New(logger.Options{Service: "cartui", Level: "debug", Out: out})

	store, closeStorage, err := openCart(context.Background(), opts, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			log.WithError(err).Warn("failed to close storage")
		}
	}()

	p := tea.NewProgram(initialModel(store, demoCatalog))
	// subscribe after Load: Send blocks until the program is running
	unsubscribe := store.Subscribe(func(items []domain.CartItem) {
		p.Send(cartChangedMsg(items))
	})
	defer unsubscribe()

	_, err = p.Run()
	return err
}

func openLog(path string) (io.Writer, func() error, error) {
	if path == "" {
		return io.Discard, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// openCart opens storage and loads the cart. A failed read still yields a
// usable empty cart.
func openCart(ctx context.Context, opts options, log logrus.FieldLogger) (*service.CartStore, func() error, error) {
	kv, closeStorage, err := storage.Open(ctx, storage.Config{Driver: opts.driver, SQLitePath: opts.dbPath}, log)
	if err != nil {
		return nil, nil, err
	}

	store := service.NewCartStore(kv, log)
	if err := store.Load(ctx); err != nil {
		log.WithError(err).Warn("starting with an empty cart")
	}
	return store, closeStorage, nil
}
