// Command hifadhi is a small operator tool around the buffer pool: init
// creates a database file, bench drives page traffic through the pool and
// reports cache behavior.
package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/alecthomas/kong"

	"github.com/njenga/hifadhi/buffer"
	"github.com/njenga/hifadhi/config"
	"github.com/njenga/hifadhi/logger"
	"github.com/njenga/hifadhi/recovery"
	"github.com/njenga/hifadhi/storage/disk"
	"github.com/njenga/hifadhi/util"
)

var cli struct {
	Config string `help:"Path to TOML config file." type:"path"`

	Init  InitCmd  `cmd:"" help:"Create an empty database file."`
	Bench BenchCmd `cmd:"" help:"Run random page traffic through the buffer pool."`
}

type InitCmd struct {
	Pages int `default:"64" help:"Initial size of the database file in pages."`
}

type BenchCmd struct {
	Ops        int     `default:"10000" help:"Number of page operations to run."`
	Pages      int     `default:"256" help:"Number of distinct pages to touch."`
	WriteRatio float64 `default:"0.25" help:"Fraction of operations that dirty the page."`
	Seed       int64   `default:"42" help:"PRNG seed."`
}

func main() {
	ctx := kong.Parse(&cli)

	cfg := config.Default()
	if cli.Config != "" {
		loaded, err := config.Load(cli.Config)
		ctx.FatalIfErrorf(err)
		cfg = loaded
	}
	ctx.FatalIfErrorf(logger.SetLevel(cfg.LogLevel))

	ctx.FatalIfErrorf(ctx.Run(&cfg))
}

func (c *InitCmd) Run(cfg *config.Config) error {
	file, err := os.OpenFile(cfg.DataFile, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := os.Truncate(cfg.DataFile, int64(c.Pages)*disk.PAGE_SIZE); err != nil {
		return err
	}

	logger.Infof("created %s with %d pages", cfg.DataFile, c.Pages)
	return nil
}

type benchRecord struct {
	Op      int    `msgpack:"op"`
	Payload string `msgpack:"payload"`
}

func (c *BenchCmd) Run(cfg *config.Config) error {
	file, err := os.OpenFile(cfg.DataFile, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	diskMgr, err := disk.NewManager(file)
	if err != nil {
		return err
	}
	scheduler := disk.NewScheduler(diskMgr)
	defer scheduler.Close()

	var logMgr *recovery.LogManager
	if cfg.WALFile != "" {
		walFile, err := os.OpenFile(cfg.WALFile, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer walFile.Close()
		logMgr = recovery.NewLogManager(walFile)
	}

	pool := buffer.NewPoolManager(cfg.PoolSize, buffer.NewClockReplacer(cfg.PoolSize), scheduler, logMgr)

	pageIds := make([]int64, 0, c.Pages)
	for i := 0; i < c.Pages; i++ {
		page, err := pool.NewPage()
		if err != nil {
			return err
		}
		pageIds = append(pageIds, page.ID())
		pool.UnpinPage(page.ID(), false)
	}

	rng := rand.New(rand.NewSource(c.Seed))
	for op := 0; op < c.Ops; op++ {
		pageId := pageIds[rng.Intn(len(pageIds))]

		page, err := pool.FetchPage(pageId)
		if err != nil {
			// with every page unpinned after use this only fires when the
			// pool is smaller than a single pin
			logger.Warnf("fetch page %d: %v", pageId, err)
			continue
		}

		dirty := rng.Float64() < c.WriteRatio
		if dirty {
			image, err := util.ToPageBytes(benchRecord{Op: op, Payload: "bench write"})
			if err != nil {
				return err
			}
			copy(page.Data(), image)

			if logMgr != nil {
				lsn, err := logMgr.Append(recovery.LogRecord{
					Type:    recovery.RecordUpdate,
					PageId:  pageId,
					Payload: []byte("bench write"),
				})
				if err != nil {
					return err
				}
				page.SetLSN(lsn)
			}
		}
		pool.UnpinPage(pageId, dirty)
	}

	if err := pool.FlushAllPages(); err != nil {
		return err
	}

	stats := pool.Stats()
	fmt.Printf("ops=%d hits=%d misses=%d evictions=%d flushes=%d hit_ratio=%.3f\n",
		c.Ops, stats.Hits, stats.Misses, stats.Evictions, stats.Flushes, stats.HitRatio())
	return nil
}
