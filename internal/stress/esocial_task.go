package stress

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/esocial"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/logging"
)

// Scenario describes the eSocial session each task runs.
type Scenario struct {
	// TempDir receives one throwaway INI file per task.
	TempDir     string
	LogPath     string
	SchemasPath string
	CryptKey    string
	// EventXML is the event loaded before sending, as a path or XML text.
	EventXML string
	Group    int32
	Logger   logging.Logger
}

// ESocialTask returns a Task that opens an instance with a uuid-named config
// file, points its logs and schemas at the scenario paths, saves the config,
// reads the version, loads the event, sends it and reads the last return. The
// config file is removed when the instance closes.
func ESocialTask(loader *acbrlib.Loader, sc Scenario) Task {
	log := sc.Logger
	if log == nil {
		log = logging.Nop()
	}
	return func(ctx context.Context, n int) (err error) {
		lib, err := esocial.New(ctx, loader)
		if err != nil {
			return err
		}

		cfgPath := filepath.Join(sc.TempDir, fmt.Sprintf("config_%s.ini", uuid.NewString()))
		if err := lib.Initialize(ctx, esocial.InitParams{
			ConfigPath:          cfgPath,
			CryptKey:            sc.CryptKey,
			RemoveConfigOnClose: true,
		}); err != nil {
			return err
		}
		defer func() {
			if cerr := lib.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		if err := lib.ConfigWriteValue("Principal", "LogPath", sc.LogPath); err != nil {
			return err
		}
		if err := lib.ConfigWriteValue("eSocial", "PathSchemas", sc.SchemasPath); err != nil {
			return err
		}
		if err := lib.ConfigWrite(cfgPath); err != nil {
			return err
		}
		version, err := lib.Version()
		if err != nil {
			return err
		}
		if err := lib.LoadXMLEvent(sc.EventXML); err != nil {
			return err
		}
		if _, err := lib.Send(sc.Group); err != nil {
			return err
		}
		last, err := lib.LastReturn()
		if err != nil {
			return err
		}
		log.Debug(ctx, "task finished", "task", n, "version", version, "last_return", last)
		return nil
	}
}
