package config

var defaults = map[string]any{
	"log_level": "info",

	"listen": ":10000",

	"allowed_networks": "",

	"storage.file.dir": "./data",

	"admin_email":    "",
	"email.host":     "host.docker.internal",
	"email.port":     25,
	"email.username": "",
	"email.password": "",
	"email.from":     "noreply@example.com",
}

func Defaults() map[string]any {
	values := make(map[string]any)
	for k, v := range defaults {
		values[k] = v
	}
	return values
}
