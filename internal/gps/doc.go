package gps

// Package gps reads a USB serial GNSS receiver and feeds the pointer session.
//
// It is intentionally small:
// - Parse RMC/GGA for position and an accuracy estimate
// - Parse HDT/HDM for device-reported true/magnetic heading events
// - Declare the primary heading source failed if no heading sentence arrives
