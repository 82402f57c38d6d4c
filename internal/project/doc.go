// Package project drives the lifecycle of one platform project: scaffolding
// it from a template, adding plugins (native files, web assets, JS modules
// and config edits), merging the application config, staging the web root,
// and delegating build and run to the platform's scripts.
//
// A Project moves through Unopened, Opened, PluginsAdded, ConfigUpdated and
// WwwCopied. AddPlugins may be repeated; the installed set only grows.
package project
