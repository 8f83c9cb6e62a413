package config

type WorkerKeyStruct struct {
	PersistAnswersQueue string
	SkillAggregateQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue: "persist_answers_queue",
	SkillAggregateQueue: "skill_aggregate_queue",
}
