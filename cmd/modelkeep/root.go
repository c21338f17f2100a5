package main

import (
	"github.com/spf13/cobra"

	"github.com/tinoosan/modelkeep/internal/config"
	"github.com/tinoosan/modelkeep/internal/downloadcfg"
)

// overrides are the persistent flags that take precedence over MODELKEEP_*.
type overrides struct {
	dataDir    string
	catalog    string
	store      string
	cancelMode string
	verbose    bool
}

func (o *overrides) apply(c *config.Config) error {
	if o.dataDir != "" {
		c.DataDir = o.dataDir
	}
	if o.catalog != "" {
		c.Catalog = o.catalog
	}
	if o.store != "" {
		c.Store = o.store
	}
	if o.cancelMode != "" {
		c.CancelMode = downloadcfg.ParseCancelMode(o.cancelMode)
	}
	return c.Validate()
}

func newRootCmd() *cobra.Command {
	o := &overrides{}
	cmd := &cobra.Command{
		Use:           "modelkeep",
		Short:         "Download and manage on-device model files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&o.dataDir, "data-dir", "", "data directory (env MODELKEEP_DATA_DIR)")
	pf.StringVar(&o.catalog, "catalog", "", "model list file (env MODELKEEP_CATALOG)")
	pf.StringVar(&o.store, "store", "", "flag store: badger|postgres|memory (env MODELKEEP_STORE)")
	pf.StringVar(&o.cancelMode, "cancel-mode", "", "boundary|immediate (env MODELKEEP_CANCEL_MODE)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "log to stderr at debug level")

	cmd.AddCommand(
		serveCmd(o),
		pullCmd(o),
		listCmd(o),
		removeCmd(o),
		pathCmd(o),
		storageCmd(o),
		watchCmd(),
	)
	return cmd
}
