package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-inventory/pkg/app"
	"github.com/lk2023060901/xdooria-inventory/pkg/config"
	"github.com/lk2023060901/xdooria-inventory/pkg/inventory/service"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// itemcheck 校验背包服务配置和物品表，并打印解析后的物品元数据
//
//	itemcheck -c config.yaml
//	itemcheck -c config.yaml --table ./items.yaml
//	INVENTORY_ITEM_TABLE_PATH=./items.yaml itemcheck -c config.yaml
func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "itemcheck:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags := pflag.NewFlagSet("itemcheck", pflag.ContinueOnError)
	flags.SetOutput(out)
	configPath := flags.StringP("config", "c", "config.yaml", "path to config file")
	tablePath := flags.String("table", "", "override item_table.path")
	envPrefix := flags.String("env-prefix", "INVENTORY", "environment variable prefix")
	showVersion := flags.BoolP("version", "v", false, "print version and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintln(out, app.GetInfo().String())
		return nil
	}

	// 优先级：命令行 > 环境变量 > 配置文件 > 默认值
	v := viper.New()
	if *tablePath != "" {
		v.Set("item_table.path", *tablePath)
	}
	mgr := config.NewManager(
		config.WithViper(v),
		config.WithStructDefaults("", service.DefaultConfig()),
		config.WithEnvPrefix(*envPrefix),
	)
	if err := mgr.LoadFile(*configPath); err != nil {
		return err
	}

	svc, err := initService(mgr)
	if err != nil {
		return err
	}
	defer svc.Close()

	metas, err := svc.Registry().Metas()
	if err != nil {
		return errors.Wrapf(err, "item table %s", svc.Config().ItemTable.Path)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HANDLE\tKIND\tNAME\tWEIGHT\tFLAGS")
	for _, m := range metas {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", m.Handle(), m.Kind(), m.DisplayName(), m.DefaultWeight(), m.Flags())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d items ok\n", len(metas))
	return nil
}
