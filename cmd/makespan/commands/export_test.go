package commands

var NewTempuraFactory = newTempuraFactory
