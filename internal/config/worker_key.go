package config

type WorkerKeyStruct struct {
	ChangeQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ChangeQueue: "marksheet_changes_queue",
}
