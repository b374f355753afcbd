package models

func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&Publication{},
		&Dataset{},
	}
}
