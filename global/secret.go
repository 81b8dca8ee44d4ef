package global

import tools "SProject/tools"

// jwtSecret：开发默认值，生产用 JWT_SECRET 覆盖。
var jwtSecret = tools.GetEnv("JWT_SECRET", "mN9b1f8zPq+W2xjX/45sKcVd0TfyoG+3Hp5Z8q9Rj1o=")
