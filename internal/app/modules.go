package app

import (
	"github.com/specialistvlad/buildmodels/internal/settings"
	"github.com/specialistvlad/buildmodels/modules/env_vars"
	"github.com/specialistvlad/buildmodels/modules/hostinfo"
)

// coreModules is the definitive list of all settings modules that are
// compiled into the buildmodels binary.
var coreModules = []settings.Module{
	&env_vars.Module{},
	&hostinfo.Module{},
}
