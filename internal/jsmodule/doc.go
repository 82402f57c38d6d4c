// Package jsmodule wraps plugin script modules in the web runtime's module
// envelope and maintains the generated module manifest, cordova_plugins.js,
// that the runtime reads at startup.
package jsmodule
