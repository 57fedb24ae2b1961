package cache

import "fmt"

func ActivityKey() string {
	return "hiretrack:activity"
}

func OfflineQueueKey(name string) string {
	return fmt.Sprintf("hiretrack:queue:%s", name)
}

func RateLimitKey(ip string) string {
	return fmt.Sprintf("ratelimit:%s", ip)
}
