package baichuan

import (
	"github.com/bcview/bcview/internal/app"
	"github.com/bcview/bcview/internal/streams"
	"github.com/bcview/bcview/pkg/baichuan"
	"github.com/bcview/bcview/pkg/core"
)

func Init() {
	log := app.GetLogger("baichuan")

	streams.HandleFunc("baichuan", func(source string) (core.Producer, error) {
		return baichuan.Dial(source, log)
	})
}
