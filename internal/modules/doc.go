// Package modules contains the self-contained application features.
//
// Each subdirectory is a module implementing module.Module. Modules are
// listed in internal/app/modules.go and registered, then booted, by
// server.InitModules.
package modules
