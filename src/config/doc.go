// Package config defines the configuration of a sequencer node.
//
// Config is the mutable, flag- and file-backed configuration that the command
// line populates through viper. It is converted into an immutable Options
// value, which selects the modules and the query backend the node runs with.
//
// On top of these options, the node relies on a data directory, defined by
// Config.DataDir, where it expects to find a few additional files:
//
//  priv_key   // a plain text file containing the raw private key (cf. sequencer keygen).
//  peers.json // (optional) a JSON file containing the membership set.
package config
