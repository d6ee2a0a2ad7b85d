// Package main hosts the dir2opus CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration once, applies flag
// overrides on a private copy, and hands the resulting jobs to the convert
// runner. Supporting commands report tool availability, list the conversion
// journal, and scaffold configuration files.
//
// Keep this package lean: conversion behaviour belongs in internal packages
// and is only surfaced here through commands and flags.
package main
