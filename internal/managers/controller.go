package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/chrissnell/remoteclimate/internal/controllers/restserver"
	"github.com/chrissnell/remoteclimate/internal/dataset"
	"github.com/chrissnell/remoteclimate/pkg/config"
	"go.uber.org/zap"
)

// Controller is one long-running controller backend. It is started once and
// shuts down through the manager's context.
type Controller interface {
	StartController() error
}

// ControllerManager starts every controller configured for this node.
type ControllerManager interface {
	StartControllers() error
}

type controllerManager struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	store          *dataset.Store
	logger         *zap.SugaredLogger
	controllers    []Controller
}

// NewControllerManager builds a controller for every entry in the controllers
// configuration.
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, store *dataset.Store, logger *zap.SugaredLogger) (ControllerManager, error) {
	controllerConfigs, err := configProvider.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("error loading controller configurations: %v", err)
	}

	cm := &controllerManager{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		store:          store,
		logger:         logger,
	}

	for _, cc := range controllerConfigs {
		controller, err := cm.createController(cc)
		if err != nil {
			return nil, fmt.Errorf("error creating %s controller: %v", cc.Type, err)
		}
		cm.controllers = append(cm.controllers, controller)
	}

	return cm, nil
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Controller manager starting")

	for _, controller := range c.controllers {
		if err := controller.StartController(); err != nil {
			return fmt.Errorf("error starting controller: %w", err)
		}
	}

	c.logger.Infof("All %d controllers running", len(c.controllers))
	return nil
}

// createController builds one controller from its configuration block.
func (cm *controllerManager) createController(cc config.ControllerData) (Controller, error) {
	switch cc.Type {
	case "restserver", "rest":
		// A missing block means default listen settings
		restConfig := config.RESTServerData{}
		if cc.RESTServer != nil {
			restConfig = *cc.RESTServer
		}
		return restserver.NewController(cm.ctx, cm.wg, cm.configProvider, restConfig, cm.store, cm.logger)
	default:
		return nil, fmt.Errorf("controller type %q is not supported", cc.Type)
	}
}
