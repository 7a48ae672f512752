package handlers

var messages = map[string]map[string]string{
	tagValidation: {
		"en": "The request is missing a field or has an invalid value.",
		"zh": "请求缺少字段或字段取值无效。",
	},
	tagConcurrencyLimit: {
		"en": "Too many generation jobs are running. Poll your existing jobs before submitting again.",
		"zh": "并发任务数已达上限，请先查询已有任务再重新提交。",
	},
	tagProviderError: {
		"en": "The 3D generation service returned an error.",
		"zh": "3D 生成服务返回错误。",
	},
	tagDownloadError: {
		"en": "Fetching the remote file failed.",
		"zh": "下载远程文件失败。",
	},
	tagNotReady: {
		"en": "The job is not finished or is unknown.",
		"zh": "任务尚未完成或不存在。",
	},
	tagIndexOutOfRange: {
		"en": "The file index is out of range.",
		"zh": "文件序号超出范围。",
	},
	tagNotFound: {
		"en": "The job was not found.",
		"zh": "未找到该任务。",
	},
	tagInternal: {
		"en": "Internal server error.",
		"zh": "服务器内部错误。",
	},
}

func localizedMessage(locale, tag string) string {
	byLocale, ok := messages[tag]
	if !ok {
		byLocale = messages[tagInternal]
	}
	if msg, ok := byLocale[locale]; ok {
		return msg
	}
	return byLocale["en"]
}
