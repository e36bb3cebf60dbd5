package logx

import (
	"go.uber.org/zap"
)

// New builds the process-wide logger. Production config unless LOG_DEV is set
// by the caller through dev=true.
func New(service string, dev bool) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if dev {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("service", service)), nil
}
